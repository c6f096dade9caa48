package game

import (
	"github.com/voxelforge/voxelforge-server/internal/ecs"
	"github.com/voxelforge/voxelforge-server/internal/event"
	"go.uber.org/zap"
)

// HealthSystem applies damage to entities carrying a health component and
// destroys them when health reaches zero.
type HealthSystem struct {
	logger *zap.Logger
	store  *ecs.Store
	events *event.System
}

// NewHealthSystem creates the health subsystem.
func NewHealthSystem(store *ecs.Store, events *event.System, logger *zap.Logger) *HealthSystem {
	return &HealthSystem{logger: logger, store: store, events: events}
}

// Name implements event.Subsystem.
func (s *HealthSystem) Name() string { return "health" }

// EventBindings implements event.Subsystem.
func (s *HealthSystem) EventBindings() []event.Binding {
	return []event.Binding{
		{
			Event:      TypeDamage,
			Priority:   event.PriorityNormal,
			Components: []ecs.ComponentType{ComponentHealth},
			Handle:     s.onDamage,
		},
		{
			Event:    TypeDestroy,
			Priority: event.PriorityTrivial,
			Handle:   s.onDestroy,
		},
	}
}

func (s *HealthSystem) onDamage(ev event.Event, entity ecs.EntityRef, comps []ecs.Component) {
	damage := ev.(*DamageEvent)
	health := comps[0].(*HealthComponent)

	health.Current -= damage.Amount
	s.logger.Debug("applied damage",
		zap.Uint64("entity_id", uint64(entity.ID())),
		zap.Int("amount", damage.Amount),
		zap.Int("remaining", health.Current),
	)

	if health.Current <= 0 {
		// The entity is going down; nothing lower priority gets a say.
		damage.Consume()
		s.events.Send(entity, DestroyEvent{Cause: "damage"})
	}
}

func (s *HealthSystem) onDestroy(ev event.Event, entity ecs.EntityRef, comps []ecs.Component) {
	s.logger.Info("entity destroyed",
		zap.Uint64("entity_id", uint64(entity.ID())),
		zap.String("cause", ev.(DestroyEvent).Cause),
	)
	s.store.Destroy(entity.ID())
}
