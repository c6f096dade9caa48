package event

import (
	"github.com/voxelforge/voxelforge-server/internal/ecs"
	"go.uber.org/zap"
)

// Event and component fixtures shared by the package tests.

const (
	typeDamage   Type = "Damage"
	typeInteract Type = "Interact"
	typeOpen     Type = "Open"
	typeClose    Type = "Close"
	typeChat     Type = "Chat"
	typeMove     Type = "Move"
)

const (
	compHealth ecs.ComponentType = "health"
	compArmor  ecs.ComponentType = "armor"
)

type plainEvent struct {
	t Type
}

func (e plainEvent) EventType() Type { return e.t }

type consumableEvent struct {
	BaseConsumable
	t Type
}

func (e *consumableEvent) EventType() Type { return e.t }

type instigatedEvent struct {
	t          Type
	instigator ecs.EntityID
}

func (e instigatedEvent) EventType() Type          { return e.t }
func (e instigatedEvent) Instigator() ecs.EntityID { return e.instigator }

type testComponent struct {
	ct  ecs.ComponentType
	tag string
}

func (c testComponent) ComponentType() ecs.ComponentType { return c.ct }

// recordingSubsystem collects invocations for assertion.
type recordingSubsystem struct {
	name     string
	bindings []Binding
	calls    []string
}

func (s *recordingSubsystem) Name() string             { return s.name }
func (s *recordingSubsystem) EventBindings() []Binding { return s.bindings }

func (s *recordingSubsystem) mark(label string) Callback {
	return func(ev Event, entity ecs.EntityRef, comps []ecs.Component) {
		s.calls = append(s.calls, label)
	}
}

type fakeForward struct {
	event  Event
	entity ecs.EntityID
}

type fakeClient struct {
	id        string
	forwarded []fakeForward
}

func (c *fakeClient) ClientID() string { return c.id }

func (c *fakeClient) Forward(ev Event, entity ecs.EntityRef) error {
	c.forwarded = append(c.forwarded, fakeForward{event: ev, entity: entity.ID()})
	return nil
}

type fakeUpstream struct {
	forwarded []fakeForward
}

func (u *fakeUpstream) Forward(ev Event, entity ecs.EntityRef) error {
	u.forwarded = append(u.forwarded, fakeForward{event: ev, entity: entity.ID()})
	return nil
}

type fakeNetwork struct {
	mode     NetworkMode
	owners   map[ecs.EntityID]Client
	clients  []Client
	upstream Upstream
}

func (n *fakeNetwork) Mode() NetworkMode { return n.mode }

func (n *fakeNetwork) Owner(id ecs.EntityID) Client {
	return n.owners[id]
}

func (n *fakeNetwork) Clients() []Client { return n.clients }

func (n *fakeNetwork) Server() Upstream { return n.upstream }

// newTestSystem wires a System against NoNetwork with the given types
// pre-registered as plain local events.
func newTestSystem(types ...Type) *System {
	reg := NewTypeRegistry(zap.NewNop())
	sys := NewSystem(reg, NoNetwork{}, nil, zap.NewNop())
	for _, t := range types {
		if err := sys.RegisterType(TypeInfo{ID: ID("test:" + string(t)), Type: t}); err != nil {
			panic(err)
		}
	}
	return sys
}
