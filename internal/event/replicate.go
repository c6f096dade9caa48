package event

import (
	"github.com/voxelforge/voxelforge-server/internal/ecs"
	"go.uber.org/zap"
)

// Component types the replication hook consults. An entity must carry a
// network identity to be addressable by remote peers; block entities are
// addressable by their spatial identity instead.
const (
	ComponentNetwork ecs.ComponentType = "network"
	ComponentBlock   ecs.ComponentType = "block"
)

// replicate forwards the event to the network layer according to the event
// type's declared policy. It runs before local dispatch and never suppresses
// it; a policy that does not apply in the current network mode is simply
// skipped.
func (s *System) replicate(entity ecs.EntityRef, ev Event) {
	info, ok := s.types.NetworkInfo(ev.EventType())
	if !ok {
		return
	}
	s.logger.Debug("replicating event",
		zap.String("event_type", string(ev.EventType())),
		zap.String("policy", info.Policy.String()),
	)
	switch info.Policy {
	case PolicyBroadcast:
		s.broadcast(entity, ev, info)
	case PolicyOwner:
		s.sendToOwner(entity, ev)
	case PolicyServer:
		s.sendToServer(entity, ev)
	}
}

// broadcast forwards to every connected client, except the owner of the
// event's instigating entity when the type declares skip-instigator.
func (s *System) broadcast(entity ecs.EntityRef, ev Event, info TypeInfo) {
	if !s.network.Mode().IsAuthority() {
		return
	}
	if !entity.HasComponent(ComponentNetwork) && !entity.HasComponent(ComponentBlock) {
		return
	}
	var instigatorClient Client
	if info.SkipInstigator {
		if instigated, ok := ev.(Instigated); ok {
			instigatorClient = s.network.Owner(instigated.Instigator())
		}
	}
	for _, client := range s.network.Clients() {
		if instigatorClient != nil && client.ClientID() == instigatorClient.ClientID() {
			continue
		}
		if err := client.Forward(ev, entity); err != nil {
			s.logger.Warn("failed to forward event to client",
				zap.String("client_id", client.ClientID()),
				zap.String("event_type", string(ev.EventType())),
				zap.Error(err),
			)
		}
	}
}

// sendToOwner forwards to the single client owning the target entity.
func (s *System) sendToOwner(entity ecs.EntityRef, ev Event) {
	if !s.network.Mode().IsAuthority() {
		return
	}
	if !entity.HasComponent(ComponentNetwork) {
		return
	}
	client := s.network.Owner(entity.ID())
	if client == nil {
		return
	}
	if err := client.Forward(ev, entity); err != nil {
		s.logger.Warn("failed to forward event to owner",
			zap.String("client_id", client.ClientID()),
			zap.String("event_type", string(ev.EventType())),
			zap.Error(err),
		)
	}
}

// sendToServer forwards to the upstream host connection.
func (s *System) sendToServer(entity ecs.EntityRef, ev Event) {
	if s.network.Mode() != ModeClient {
		return
	}
	if !entity.HasComponent(ComponentNetwork) {
		return
	}
	upstream := s.network.Server()
	if upstream == nil {
		return
	}
	if err := upstream.Forward(ev, entity); err != nil {
		s.logger.Warn("failed to forward event to server",
			zap.String("event_type", string(ev.EventType())),
			zap.Error(err),
		)
	}
}
