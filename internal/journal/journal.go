// Package journal records dispatched events for later inspection and replay.
// The recorder observes every top-level send on the owning goroutine, before
// replication and dispatch; recording failures are logged and never disturb
// dispatch.
package journal

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/voxelforge/voxelforge-server/internal/ecs"
	"github.com/voxelforge/voxelforge-server/internal/event"
	"go.uber.org/zap"
)

// Status is the recorder's switch.
type Status int

const (
	// StatusOff — sends pass through unrecorded.
	StatusOff Status = iota
	// StatusRecording — every top-level send is appended to the store.
	StatusRecording
)

// Entry is one recorded send.
type Entry struct {
	ID        string
	Seq       uint64
	EntityID  ecs.EntityID
	EventType event.Type
	// Component is the triggering component type of a single-component send,
	// empty otherwise.
	Component ecs.ComponentType
	Body      json.RawMessage
	At        time.Time
}

// Store persists journal entries.
type Store interface {
	Append(ctx context.Context, e Entry) error
	// List returns the most recent entries, oldest first, up to limit.
	List(ctx context.Context, limit int) ([]Entry, error)
}

// Recorder implements event.Recorder against a Store. Status changes and
// Record calls happen on the owning goroutine.
type Recorder struct {
	logger *zap.Logger
	store  Store
	status Status
	seq    uint64
}

// NewRecorder creates a recorder that is off until started.
func NewRecorder(store Store, logger *zap.Logger) *Recorder {
	return &Recorder{logger: logger, store: store}
}

// Start begins recording.
func (r *Recorder) Start() { r.status = StatusRecording }

// Stop ends recording.
func (r *Recorder) Stop() { r.status = StatusOff }

// Status returns the recorder's current status.
func (r *Recorder) Status() Status { return r.status }

// Record appends the send to the store while recording. Store and encoding
// errors are logged and dropped; dispatch is never held up.
func (r *Recorder) Record(entity ecs.EntityRef, ev event.Event, component ecs.Component) {
	if r.status != StatusRecording {
		return
	}
	body, err := json.Marshal(ev)
	if err != nil {
		r.logger.Warn("failed to encode event for journal",
			zap.String("event_type", string(ev.EventType())),
			zap.Error(err),
		)
		return
	}
	r.seq++
	entry := Entry{
		ID:        uuid.NewString(),
		Seq:       r.seq,
		EntityID:  entity.ID(),
		EventType: ev.EventType(),
		Body:      body,
		At:        time.Now(),
	}
	if component != nil {
		entry.Component = component.ComponentType()
	}
	if err := r.store.Append(context.Background(), entry); err != nil {
		r.logger.Warn("failed to append journal entry",
			zap.String("event_type", string(ev.EventType())),
			zap.Uint64("seq", entry.Seq),
			zap.Error(err),
		)
	}
}

// MemoryStore keeps entries in memory; the default store and the one tests
// use.
type MemoryStore struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append implements Store.
func (s *MemoryStore) Append(_ context.Context, e Entry) error {
	s.mu.Lock()
	s.entries = append(s.entries, e)
	s.mu.Unlock()
	return nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := 0
	if limit > 0 && len(s.entries) > limit {
		start = len(s.entries) - limit
	}
	out := make([]Entry, len(s.entries)-start)
	copy(out, s.entries[start:])
	return out, nil
}
