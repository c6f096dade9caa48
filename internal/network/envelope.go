// Package network implements the websocket transport behind the event
// engine's network interfaces: a host-side Hub tracking connected clients and
// entity ownership, and a client-side Upstream connection to a host. The
// engine itself only ever decides whether and to whom an event is forwarded;
// this package carries the envelopes.
package network

import (
	"encoding/json"
	"fmt"

	"github.com/voxelforge/voxelforge-server/internal/ecs"
	"github.com/voxelforge/voxelforge-server/internal/event"
)

// Envelope is the unit of event replication on the wire: the event type's
// registry identifier, the target entity, and the JSON-encoded event body.
// Framing below this level is the websocket's concern.
type Envelope struct {
	EventID  event.ID        `json:"event_id"`
	EntityID ecs.EntityID    `json:"entity_id"`
	Body     json.RawMessage `json:"body"`
}

// encodeEnvelope builds the wire form of a replicated event. Events of
// unregistered types cannot cross the wire.
func encodeEnvelope(types *event.TypeRegistry, ev event.Event, entity ecs.EntityRef) (Envelope, error) {
	id, ok := types.IDByType(ev.EventType())
	if !ok {
		return Envelope{}, fmt.Errorf("event type %q is not registered and cannot be replicated", ev.EventType())
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode event %q: %w", ev.EventType(), err)
	}
	return Envelope{EventID: id, EntityID: entity.ID(), Body: body}, nil
}

// joinRequest is the first message a connecting client sends.
type joinRequest struct {
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`
}

// joinResponse acknowledges or rejects a join.
type joinResponse struct {
	OK       bool   `json:"ok"`
	ClientID string `json:"client_id,omitempty"`
	Reason   string `json:"reason,omitempty"`
}
