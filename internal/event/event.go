// Package event implements the entity-component event dispatch engine: typed
// event values are routed to registered handlers based on the event's type
// (including its declared ancestor chain) and the components present on the
// target entity at dispatch time. Dispatch is single-threaded: one owning
// goroutine performs all registry mutation and handler invocation, while any
// goroutine may submit events through a pending queue drained once per tick.
package event

import (
	"github.com/voxelforge/voxelforge-server/internal/ecs"
)

// Type names a category of occurrence, e.g. "Damage". Types are registered
// once with the TypeRegistry before any handler registration that depends on
// their ancestor chain.
type Type string

// ID is the stable registry identifier of an event type, in
// "namespace:name" form, e.g. "core:damage". It is what crosses the wire when
// an event is replicated.
type ID string

// Universal root types. They are implied ancestors of every event type and
// never enter the child-type index.
const (
	RootEvent      Type = "Event"
	RootConsumable Type = "ConsumableEvent"
)

// Event is an immutable value routed to interested handlers.
type Event interface {
	EventType() Type
}

// Consumable is implemented by events carrying a one-way consumed flag. Once a
// handler consumes the event, remaining handlers in the same dispatch are
// skipped.
type Consumable interface {
	Event
	Consume()
	Consumed() bool
}

// Instigated is implemented by events that expose the entity which caused
// them. Broadcast replication with the skip-instigator flag uses it to avoid
// echoing an event back to the client that originated it.
type Instigated interface {
	Instigator() ecs.EntityID
}

// BaseConsumable supplies the consumed flag for consumable event types; embed
// it and implement EventType.
type BaseConsumable struct {
	consumed bool
}

// Consume marks the event consumed. The flag is one-way.
func (b *BaseConsumable) Consume() { b.consumed = true }

// Consumed reports whether a handler has consumed the event.
func (b *BaseConsumable) Consumed() bool { return b.consumed }
