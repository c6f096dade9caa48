package event

import (
	"fmt"

	"github.com/voxelforge/voxelforge-server/internal/ecs"
)

// Handler priority bands. Higher priorities are invoked earlier; handlers at
// equal priority run in registration order.
const (
	PriorityCritical = 200
	PriorityHigh     = 150
	PriorityNormal   = 100
	PriorityLow      = 50
	PriorityTrivial  = 0
)

// Callback receives a dispatched event. components holds the handler's
// declared component types fetched fresh from the entity at invocation time,
// in declaration order.
type Callback func(ev Event, entity ecs.EntityRef, components []ecs.Component)

// Binding declares one handler of a subsystem: the event type it fires for,
// its priority, the component types the target entity must carry (empty means
// the handler fires for every entity), and the callback. A binding for event
// type T also covers every descendant of T known at registration time.
type Binding struct {
	Event      Type
	Priority   int
	Components []ecs.ComponentType
	Handle     Callback
}

// Subsystem owns a set of handler bindings. Registration scans EventBindings
// once; unregistration removes everything the subsystem registered, compared
// by identity.
type Subsystem interface {
	Name() string
	EventBindings() []Binding
}

// Receiver is the minimal single-callback handler shape, for callers that
// subscribe to one event type directly instead of through a subsystem binding
// table.
type Receiver interface {
	OnEvent(ev Event, entity ecs.EntityRef)
}

// handlerInfo is the engine's uniform view of a registered handler.
type handlerInfo interface {
	// isValidFor is rechecked immediately before each invocation; components
	// may have been removed by an earlier handler in the same dispatch.
	isValidFor(entity ecs.EntityRef) bool
	invoke(entity ecs.EntityRef, ev Event)
	priority() int
	// seq is the registration sequence number, the tie-break among handlers
	// of equal priority.
	seq() uint64
	// owner is the identity bulk unregistration matches against.
	owner() any
	name() string
}

// bindingHandler is a handler registered through a subsystem's binding table.
type bindingHandler struct {
	subsystem  Subsystem
	label      string
	callback   Callback
	components []ecs.ComponentType
	prio       int
	sequence   uint64
}

func (h *bindingHandler) isValidFor(entity ecs.EntityRef) bool {
	for _, ct := range h.components {
		if !entity.HasComponent(ct) {
			return false
		}
	}
	return true
}

func (h *bindingHandler) invoke(entity ecs.EntityRef, ev Event) {
	var comps []ecs.Component
	if len(h.components) > 0 {
		comps = make([]ecs.Component, len(h.components))
		for i, ct := range h.components {
			comps[i] = entity.Component(ct)
		}
	}
	h.callback(ev, entity, comps)
}

func (h *bindingHandler) priority() int { return h.prio }
func (h *bindingHandler) seq() uint64   { return h.sequence }
func (h *bindingHandler) owner() any    { return h.subsystem }
func (h *bindingHandler) name() string  { return h.label }

// receiverHandler adapts a Receiver to the engine's handler shape.
type receiverHandler struct {
	receiver   Receiver
	components []ecs.ComponentType
	prio       int
	sequence   uint64
}

func (h *receiverHandler) isValidFor(entity ecs.EntityRef) bool {
	for _, ct := range h.components {
		if !entity.HasComponent(ct) {
			return false
		}
	}
	return true
}

func (h *receiverHandler) invoke(entity ecs.EntityRef, ev Event) {
	h.receiver.OnEvent(ev, entity)
}

func (h *receiverHandler) priority() int { return h.prio }
func (h *receiverHandler) seq() uint64   { return h.sequence }
func (h *receiverHandler) owner() any    { return h.receiver }
func (h *receiverHandler) name() string  { return fmt.Sprintf("receiver %T", h.receiver) }
