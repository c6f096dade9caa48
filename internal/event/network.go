package event

import (
	"github.com/voxelforge/voxelforge-server/internal/ecs"
)

// NetworkMode describes the local process's role in a session.
type NetworkMode int

const (
	// ModeNone means no network session is active.
	ModeNone NetworkMode = iota
	// ModeClient means the process is a remote peer connected to a host.
	ModeClient
	// ModeServer means the process is a dedicated authoritative host.
	ModeServer
	// ModeListenServer means the process hosts and plays at the same time.
	ModeListenServer
)

// IsAuthority reports whether the local process is an authoritative host.
func (m NetworkMode) IsAuthority() bool {
	return m == ModeServer || m == ModeListenServer
}

// String returns the mode name for logging.
func (m NetworkMode) String() string {
	switch m {
	case ModeNone:
		return "NONE"
	case ModeClient:
		return "CLIENT"
	case ModeServer:
		return "SERVER"
	case ModeListenServer:
		return "LISTEN_SERVER"
	default:
		return "UNKNOWN"
	}
}

// Client is a connected remote player, as seen by the replication hook.
type Client interface {
	// ClientID uniquely identifies the connection.
	ClientID() string
	// Forward ships a replicated event targeting the given entity to the
	// remote peer. Encoding is the network layer's concern.
	Forward(ev Event, entity ecs.EntityRef) error
}

// Upstream is the single connection to the authoritative host, present only
// in client mode.
type Upstream interface {
	Forward(ev Event, entity ecs.EntityRef) error
}

// Network is the engine's view of the network layer. The engine only decides
// whether and to whom an event is forwarded; transport and encoding live
// behind this interface.
type Network interface {
	Mode() NetworkMode
	// Owner resolves the client owning the given entity, or nil.
	Owner(id ecs.EntityID) Client
	// Clients lists all connected clients.
	Clients() []Client
	// Server returns the upstream host connection, or nil when not connected
	// as a client.
	Server() Upstream
}

// NoNetwork is a Network for sessions without networking; every replication
// policy becomes a no-op against it.
type NoNetwork struct{}

// Mode always reports ModeNone.
func (NoNetwork) Mode() NetworkMode { return ModeNone }

// Owner always resolves to no client.
func (NoNetwork) Owner(ecs.EntityID) Client { return nil }

// Clients always returns nil.
func (NoNetwork) Clients() []Client { return nil }

// Server always returns nil.
func (NoNetwork) Server() Upstream { return nil }
