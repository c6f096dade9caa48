package event

import (
	"go.uber.org/zap"
)

// Policy is an event type's network replication rule, applied before local
// dispatch.
type Policy int

const (
	// PolicyNone — the event never leaves the local process.
	PolicyNone Policy = iota
	// PolicyBroadcast — a hosting process forwards the event to every
	// connected client.
	PolicyBroadcast
	// PolicyOwner — a hosting process forwards the event to the client owning
	// the target entity.
	PolicyOwner
	// PolicyServer — a client process forwards the event to the host.
	PolicyServer
)

// String returns the policy name for logging.
func (p Policy) String() string {
	switch p {
	case PolicyNone:
		return "NONE"
	case PolicyBroadcast:
		return "BROADCAST"
	case PolicyOwner:
		return "OWNER"
	case PolicyServer:
		return "SERVER"
	default:
		return "UNKNOWN"
	}
}

// TypeInfo declares an event type to the registry: its stable identifier, its
// ancestor chain (most specific first, excluding the universal roots, which
// are filtered out if present), and its replication policy.
type TypeInfo struct {
	ID             ID
	Type           Type
	Ancestors      []Type
	Policy         Policy
	SkipInstigator bool
}

// TypeRegistry maps identifiers to event types and records each type's
// ancestor chain so a handler bound to an ancestor can be mirrored into the
// descendants known when the handler is registered. Write-once per type,
// owning-goroutine only.
type TypeRegistry struct {
	logger *zap.Logger

	byID   map[ID]Type
	byType map[Type]ID
	// children maps an ancestor type to the types that declared it, in
	// registration order.
	children map[Type][]Type
	// network is the side index of types carrying a replication policy.
	network map[Type]TypeInfo
}

// NewTypeRegistry creates an empty type registry.
func NewTypeRegistry(logger *zap.Logger) *TypeRegistry {
	return &TypeRegistry{
		logger:   logger,
		byID:     make(map[ID]Type),
		byType:   make(map[Type]ID),
		children: make(map[Type][]Type),
		network:  make(map[Type]TypeInfo),
	}
}

// Register records an event type. It fails with DuplicateRegistrationError if
// either the identifier or the type name is already taken, without mutating
// the registry.
func (r *TypeRegistry) Register(info TypeInfo) error {
	if _, ok := r.byID[info.ID]; ok {
		return &DuplicateRegistrationError{ID: info.ID, Type: info.Type}
	}
	if _, ok := r.byType[info.Type]; ok {
		return &DuplicateRegistrationError{ID: info.ID, Type: info.Type}
	}

	r.byID[info.ID] = info.Type
	r.byType[info.Type] = info.ID
	r.logger.Debug("registered event type",
		zap.String("event_id", string(info.ID)),
		zap.String("event_type", string(info.Type)),
	)

	for _, ancestor := range info.Ancestors {
		if ancestor == RootEvent || ancestor == RootConsumable {
			continue
		}
		r.children[ancestor] = append(r.children[ancestor], info.Type)
	}

	if info.Policy != PolicyNone {
		r.network[info.Type] = info
	}
	return nil
}

// TypeByID resolves a registry identifier to its event type.
func (r *TypeRegistry) TypeByID(id ID) (Type, bool) {
	t, ok := r.byID[id]
	return t, ok
}

// IDByType resolves an event type to its registry identifier.
func (r *TypeRegistry) IDByType(t Type) (ID, bool) {
	id, ok := r.byType[t]
	return id, ok
}

// Children returns the currently-known descendants of an event type, in
// registration order. The returned slice is owned by the registry.
func (r *TypeRegistry) Children(t Type) []Type {
	return r.children[t]
}

// NetworkInfo returns the replication declaration of an event type, if it has
// one.
func (r *TypeRegistry) NetworkInfo(t Type) (TypeInfo, bool) {
	info, ok := r.network[t]
	return info, ok
}
