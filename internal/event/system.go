package event

import (
	"fmt"
	"sort"

	"github.com/voxelforge/voxelforge-server/internal/ecs"
	"go.uber.org/zap"
)

// Recorder observes every top-level send performed on the owning goroutine,
// before replication and dispatch. The journal package provides the real
// implementation; a nil Recorder disables recording.
type Recorder interface {
	Record(entity ecs.EntityRef, ev Event, component ecs.Component)
}

// System is the event dispatch engine. One instance is constructed per
// running simulation, on the goroutine that will own dispatch; that goroutine
// performs all registration, all replication decisions, and all handler
// invocation. Other goroutines may only call Send, which queues for the next
// Process.
type System struct {
	logger   *zap.Logger
	types    *TypeRegistry
	network  Network
	recorder Recorder

	ownerGID uint64
	nextSeq  uint64

	general map[Type][]handlerInfo
	// componentSpecific buckets handlers by (event type, required component).
	componentSpecific map[Type]map[ecs.ComponentType][]handlerInfo

	pending pendingQueue
}

// NewSystem creates a dispatch engine owned by the calling goroutine.
// recorder may be nil.
func NewSystem(types *TypeRegistry, network Network, recorder Recorder, logger *zap.Logger) *System {
	return &System{
		logger:            logger,
		types:             types,
		network:           network,
		recorder:          recorder,
		ownerGID:          currentGoroutineID(),
		general:           make(map[Type][]handlerInfo),
		componentSpecific: make(map[Type]map[ecs.ComponentType][]handlerInfo),
	}
}

// Types returns the engine's type registry.
func (s *System) Types() *TypeRegistry { return s.types }

// RegisterType records an event type with the registry. Must run before any
// handler registration that relies on the type's ancestor chain: handlers
// already bound to an ancestor will not cover this type.
func (s *System) RegisterType(info TypeInfo) error {
	if err := s.types.Register(info); err != nil {
		return err
	}
	for _, ancestor := range info.Ancestors {
		if len(s.general[ancestor]) > 0 || len(s.componentSpecific[ancestor]) > 0 {
			s.logger.Warn("event type registered after handlers for its ancestor; those handlers will not cover it",
				zap.String("event_type", string(info.Type)),
				zap.String("ancestor", string(ancestor)),
			)
		}
	}
	return nil
}

// RegisterSubsystem validates and registers every binding the subsystem
// declares. On any malformed binding it returns InvalidHandlerError and
// registers nothing.
func (s *System) RegisterSubsystem(sub Subsystem) error {
	if sub == nil {
		return &InvalidHandlerError{Subsystem: "", Reason: "nil subsystem"}
	}
	bindings := sub.EventBindings()
	for i, b := range bindings {
		if err := validateBinding(sub.Name(), i, b); err != nil {
			return err
		}
	}
	for i, b := range bindings {
		h := &bindingHandler{
			subsystem:  sub,
			label:      fmt.Sprintf("%s[%d:%s]", sub.Name(), i, b.Event),
			callback:   b.Handle,
			components: append([]ecs.ComponentType(nil), b.Components...),
			prio:       b.Priority,
			sequence:   s.nextSequence(),
		}
		s.addHandler(b.Event, h, h.components)
	}
	s.logger.Debug("registered handler subsystem",
		zap.String("subsystem", sub.Name()),
		zap.Int("bindings", len(bindings)),
	)
	return nil
}

func validateBinding(name string, i int, b Binding) error {
	if b.Handle == nil {
		return &InvalidHandlerError{Subsystem: name, Binding: i, Reason: "nil callback"}
	}
	if b.Event == "" {
		return &InvalidHandlerError{Subsystem: name, Binding: i, Reason: "empty event type"}
	}
	seen := make(map[ecs.ComponentType]struct{}, len(b.Components))
	for _, ct := range b.Components {
		if ct == "" {
			return &InvalidHandlerError{Subsystem: name, Binding: i, Reason: "empty component type"}
		}
		if _, dup := seen[ct]; dup {
			return &InvalidHandlerError{Subsystem: name, Binding: i,
				Reason: fmt.Sprintf("duplicate component type %q", ct)}
		}
		seen[ct] = struct{}{}
	}
	return nil
}

// UnregisterSubsystem removes every handler owned by the subsystem from every
// general set and component bucket, compared by identity.
func (s *System) UnregisterSubsystem(sub Subsystem) {
	s.removeOwnedBy(sub)
}

// RegisterReceiver registers a single receiver-style handler for one event
// type and its currently-known descendants.
func (s *System) RegisterReceiver(r Receiver, t Type, priority int, components ...ecs.ComponentType) {
	h := &receiverHandler{
		receiver:   r,
		components: append([]ecs.ComponentType(nil), components...),
		prio:       priority,
		sequence:   s.nextSequence(),
	}
	s.addHandler(t, h, h.components)
}

// UnregisterReceiver removes the receiver from exactly the buckets it
// subscribed with, including the implied descendant buckets.
func (s *System) UnregisterReceiver(r Receiver, t Type, components ...ecs.ComponentType) {
	if len(components) == 0 {
		s.general[t] = removeOwned(s.general[t], r)
		for _, child := range s.types.Children(t) {
			s.general[child] = removeOwned(s.general[child], r)
		}
		return
	}
	types := append([]Type{t}, s.types.Children(t)...)
	for _, et := range types {
		buckets := s.componentSpecific[et]
		if buckets == nil {
			continue
		}
		for _, ct := range components {
			buckets[ct] = removeOwned(buckets[ct], r)
		}
	}
}

// addHandler places the handler in the general set or in one bucket per
// required component, mirrored into every currently-known descendant of t.
// Types registered later are not covered.
func (s *System) addHandler(t Type, h handlerInfo, components []ecs.ComponentType) {
	if len(components) == 0 {
		s.general[t] = append(s.general[t], h)
		for _, child := range s.types.Children(t) {
			s.general[child] = append(s.general[child], h)
		}
		return
	}
	for _, ct := range components {
		s.addComponentHandler(t, h, ct)
		for _, child := range s.types.Children(t) {
			s.addComponentHandler(child, h, ct)
		}
	}
}

func (s *System) addComponentHandler(t Type, h handlerInfo, ct ecs.ComponentType) {
	buckets := s.componentSpecific[t]
	if buckets == nil {
		buckets = make(map[ecs.ComponentType][]handlerInfo)
		s.componentSpecific[t] = buckets
	}
	buckets[ct] = append(buckets[ct], h)
}

func (s *System) removeOwnedBy(owner any) {
	for t, handlers := range s.general {
		s.general[t] = removeOwned(handlers, owner)
	}
	for _, buckets := range s.componentSpecific {
		for ct, handlers := range buckets {
			buckets[ct] = removeOwned(handlers, owner)
		}
	}
}

func removeOwned(handlers []handlerInfo, owner any) []handlerInfo {
	kept := handlers[:0]
	for _, h := range handlers {
		if h.owner() != owner {
			kept = append(kept, h)
		}
	}
	return kept
}

func (s *System) nextSequence() uint64 {
	s.nextSeq++
	return s.nextSeq
}

// Send dispatches the event against the entity. On the owning goroutine it
// records, replicates, and dispatches synchronously; on any other goroutine
// it queues the submission for the next Process.
func (s *System) Send(entity ecs.EntityRef, ev Event) {
	if currentGoroutineID() != s.ownerGID {
		s.pending.push(pendingEvent{entity: entity, event: ev})
		return
	}
	if s.recorder != nil {
		s.recorder.Record(entity, ev, nil)
	}
	s.replicate(entity, ev)

	selected := s.selectHandlers(ev.EventType(), entity)
	sortHandlers(selected)
	s.dispatch(entity, ev, selected)
}

// SendToComponent dispatches only to handlers bucketed under the triggering
// component's type, bypassing the general-handler set and replication.
func (s *System) SendToComponent(entity ecs.EntityRef, ev Event, component ecs.Component) {
	if currentGoroutineID() != s.ownerGID {
		s.pending.push(pendingEvent{entity: entity, event: ev, component: component})
		return
	}
	if s.recorder != nil {
		s.recorder.Record(entity, ev, component)
	}
	buckets := s.componentSpecific[ev.EventType()]
	if buckets == nil {
		return
	}
	selected := append([]handlerInfo(nil), buckets[component.ComponentType()]...)
	sortHandlers(selected)
	s.dispatch(entity, ev, selected)
}

// Process drains the pending queue, dispatching each queued submission in
// FIFO order through the same path as a synchronous Send. Called once per
// tick by the owning goroutine.
func (s *System) Process() {
	for pe, ok := s.pending.poll(); ok; pe, ok = s.pending.poll() {
		if pe.component != nil {
			s.SendToComponent(pe.entity, pe.event, pe.component)
		} else {
			s.Send(pe.entity, pe.event)
		}
	}
}

// PendingCount reports the number of queued submissions. Safe from any
// goroutine.
func (s *System) PendingCount() int {
	return s.pending.len()
}

// selectHandlers returns the union of the general-handler set for t and, for
// each component bucket under t whose component the entity carries, the
// handlers still valid for the entity. Validity is checked here and again
// before each invocation.
func (s *System) selectHandlers(t Type, entity ecs.EntityRef) []handlerInfo {
	var selected []handlerInfo
	seen := make(map[handlerInfo]struct{})

	for _, h := range s.general[t] {
		if _, dup := seen[h]; !dup {
			seen[h] = struct{}{}
			selected = append(selected, h)
		}
	}

	buckets := s.componentSpecific[t]
	for ct, handlers := range buckets {
		if !entity.HasComponent(ct) {
			continue
		}
		for _, h := range handlers {
			if _, dup := seen[h]; dup {
				continue
			}
			if h.isValidFor(entity) {
				seen[h] = struct{}{}
				selected = append(selected, h)
			}
		}
	}
	return selected
}

// sortHandlers orders by descending priority, then by registration sequence,
// keeping dispatch order deterministic among equal priorities.
func sortHandlers(handlers []handlerInfo) {
	sort.Slice(handlers, func(i, j int) bool {
		if handlers[i].priority() != handlers[j].priority() {
			return handlers[i].priority() > handlers[j].priority()
		}
		return handlers[i].seq() < handlers[j].seq()
	})
}

func (s *System) dispatch(entity ecs.EntityRef, ev Event, handlers []handlerInfo) {
	consumable, _ := ev.(Consumable)
	for _, h := range handlers {
		// Components may have been removed by an earlier handler in this
		// dispatch.
		if !h.isValidFor(entity) {
			continue
		}
		s.invokeHandler(h, entity, ev)
		if consumable != nil && consumable.Consumed() {
			return
		}
	}
}

// invokeHandler isolates a misbehaving handler: a panic is recovered and
// logged with the handler's identity, and the remaining handlers in the
// dispatch still run.
func (s *System) invokeHandler(h handlerInfo, entity ecs.EntityRef, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("event handler failed",
				zap.String("handler", h.name()),
				zap.String("event_type", string(ev.EventType())),
				zap.Uint64("entity_id", uint64(entity.ID())),
				zap.Any("panic", r),
			)
		}
	}()
	h.invoke(entity, ev)
}
