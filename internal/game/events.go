// Package game defines the core gameplay event types and the built-in
// handler subsystems registered at server startup.
package game

import (
	"github.com/voxelforge/voxelforge-server/internal/ecs"
	"github.com/voxelforge/voxelforge-server/internal/event"
)

// Core event types.
const (
	TypeDamage   event.Type = "Damage"
	TypeDestroy  event.Type = "Destroy"
	TypeInteract event.Type = "Interact"
	TypeOpen     event.Type = "Open"
	TypeAttack   event.Type = "Attack"
	TypeChat     event.Type = "Chat"
	TypeMove     event.Type = "Move"
)

// Component types attached to game entities.
const (
	ComponentHealth ecs.ComponentType = "health"
)

// RegisterCoreTypes registers the core event types. Must run before any
// subsystem registration; ancestor chains only cover handlers registered
// afterward.
func RegisterCoreTypes(sys *event.System) error {
	infos := []event.TypeInfo{
		{
			ID:             "core:damage",
			Type:           TypeDamage,
			Ancestors:      []event.Type{event.RootConsumable},
			Policy:         event.PolicyBroadcast,
			SkipInstigator: true,
		},
		{
			ID:     "core:destroy",
			Type:   TypeDestroy,
			Policy: event.PolicyBroadcast,
		},
		{
			ID:   "core:interact",
			Type: TypeInteract,
		},
		{
			ID:        "core:open",
			Type:      TypeOpen,
			Ancestors: []event.Type{TypeInteract},
		},
		{
			ID:        "core:attack",
			Type:      TypeAttack,
			Ancestors: []event.Type{TypeInteract},
		},
		{
			ID:     "core:chat",
			Type:   TypeChat,
			Policy: event.PolicyOwner,
		},
		{
			ID:     "core:move",
			Type:   TypeMove,
			Policy: event.PolicyServer,
		},
	}
	for _, info := range infos {
		if err := sys.RegisterType(info); err != nil {
			return err
		}
	}
	return nil
}

// DamageEvent reduces the target's health. Consumable: a shield or
// invulnerability handler may consume it before the health subsystem applies
// it.
type DamageEvent struct {
	event.BaseConsumable
	Amount       int          `json:"amount"`
	InstigatorID ecs.EntityID `json:"instigator_id"`
}

// EventType implements event.Event.
func (*DamageEvent) EventType() event.Type { return TypeDamage }

// Instigator implements event.Instigated for skip-instigator broadcast.
func (e *DamageEvent) Instigator() ecs.EntityID { return e.InstigatorID }

// DestroyEvent announces that an entity is being removed from the world.
type DestroyEvent struct {
	Cause string `json:"cause,omitempty"`
}

// EventType implements event.Event.
func (DestroyEvent) EventType() event.Type { return TypeDestroy }

// OpenEvent is the specialized interaction of opening a container or door.
type OpenEvent struct{}

// EventType implements event.Event.
func (OpenEvent) EventType() event.Type { return TypeOpen }

// ChatEvent carries a chat line to the entity's owning client.
type ChatEvent struct {
	Message string `json:"message"`
}

// EventType implements event.Event.
func (ChatEvent) EventType() event.Type { return TypeChat }

// MoveEvent is a client's movement request, replicated up to the host.
type MoveEvent struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// EventType implements event.Event.
func (MoveEvent) EventType() event.Type { return TypeMove }

// HealthComponent tracks an entity's hit points.
type HealthComponent struct {
	Current int
	Max     int
}

// ComponentType implements ecs.Component.
func (*HealthComponent) ComponentType() ecs.ComponentType { return ComponentHealth }
