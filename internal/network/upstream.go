package network

import (
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/voxelforge/voxelforge-server/internal/ecs"
	"github.com/voxelforge/voxelforge-server/internal/event"
	"go.uber.org/zap"
)

// UpstreamConn is the client-side connection to an authoritative host. It
// implements both event.Upstream (the forwarding target of server-only
// replication) and event.Network (the engine's network view in client mode).
type UpstreamConn struct {
	logger   *zap.Logger
	types    *event.TypeRegistry
	conn     *websocket.Conn
	clientID string
	send     chan []byte

	inbound chan Envelope
}

// Dial connects to a host's websocket endpoint and performs the join
// handshake.
func Dial(url, name, password string, types *event.TypeRegistry, logger *zap.Logger) (*UpstreamConn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	if err := conn.WriteJSON(joinRequest{Name: name, Password: password}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send join request: %w", err)
	}
	var resp joinResponse
	if err := conn.ReadJSON(&resp); err != nil {
		conn.Close()
		return nil, fmt.Errorf("read join response: %w", err)
	}
	if !resp.OK {
		conn.Close()
		return nil, fmt.Errorf("join rejected: %s", resp.Reason)
	}

	u := &UpstreamConn{
		logger:   logger,
		types:    types,
		conn:     conn,
		clientID: resp.ClientID,
		send:     make(chan []byte, sendBuffer),
		inbound:  make(chan Envelope, 256),
	}
	logger.Info("connected to host",
		zap.String("url", url),
		zap.String("client_id", resp.ClientID),
	)
	go u.writePump()
	go u.readPump()
	return u, nil
}

// ClientID returns the identifier the host assigned at join time.
func (u *UpstreamConn) ClientID() string { return u.clientID }

// Forward implements event.Upstream.
func (u *UpstreamConn) Forward(ev event.Event, entity ecs.EntityRef) error {
	env, err := encodeEnvelope(u.types, ev, entity)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	select {
	case u.send <- payload:
		return nil
	default:
		return errSendBufferFull
	}
}

// Inbound exposes envelopes replicated down from the host.
func (u *UpstreamConn) Inbound() <-chan Envelope { return u.inbound }

// Close tears the connection down.
func (u *UpstreamConn) Close() error {
	close(u.send)
	return u.conn.Close()
}

// Mode implements event.Network: an upstream connection means client mode.
func (u *UpstreamConn) Mode() event.NetworkMode { return event.ModeClient }

// Owner implements event.Network; clients resolve no owners.
func (u *UpstreamConn) Owner(ecs.EntityID) event.Client { return nil }

// Clients implements event.Network; clients see no peer list.
func (u *UpstreamConn) Clients() []event.Client { return nil }

// Server implements event.Network, returning the upstream itself.
func (u *UpstreamConn) Server() event.Upstream { return u }

func (u *UpstreamConn) writePump() {
	for payload := range u.send {
		if err := u.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			u.logger.Warn("write to host failed", zap.Error(err))
			return
		}
	}
}

func (u *UpstreamConn) readPump() {
	for {
		var env Envelope
		if err := u.conn.ReadJSON(&env); err != nil {
			u.logger.Info("host connection closed", zap.Error(err))
			return
		}
		select {
		case u.inbound <- env:
		default:
			u.logger.Warn("inbound queue full, dropping envelope",
				zap.String("event_id", string(env.EventID)),
			)
		}
	}
}
