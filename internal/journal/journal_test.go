package journal

import (
	"context"
	"os"
	"testing"

	"github.com/voxelforge/voxelforge-server/internal/ecs"
	"github.com/voxelforge/voxelforge-server/internal/event"
	"go.uber.org/zap"
)

type recordedEvent struct {
	Amount int `json:"amount"`
}

func (recordedEvent) EventType() event.Type { return "Damage" }

type taggedComponent struct{}

func (taggedComponent) ComponentType() ecs.ComponentType { return "health" }

func TestRecorderOffByDefault(t *testing.T) {
	store := NewMemoryStore()
	rec := NewRecorder(store, zap.NewNop())
	ecsStore := ecs.NewStore()
	entity := ecsStore.Create()

	rec.Record(entity, recordedEvent{Amount: 1}, nil)

	entries, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("recorder must not record while off, got %d entries", len(entries))
	}
}

func TestRecorderSequencesEntries(t *testing.T) {
	store := NewMemoryStore()
	rec := NewRecorder(store, zap.NewNop())
	ecsStore := ecs.NewStore()
	entity := ecsStore.Create()

	rec.Start()
	rec.Record(entity, recordedEvent{Amount: 1}, nil)
	rec.Record(entity, recordedEvent{Amount: 2}, taggedComponent{})
	rec.Stop()
	rec.Record(entity, recordedEvent{Amount: 3}, nil)

	entries, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Seq != 1 || entries[1].Seq != 2 {
		t.Fatalf("expected sequential seq numbers, got %d and %d", entries[0].Seq, entries[1].Seq)
	}
	if entries[0].EventType != "Damage" {
		t.Fatalf("expected event type Damage, got %s", entries[0].EventType)
	}
	if entries[0].Component != "" {
		t.Fatalf("plain send must not record a component, got %q", entries[0].Component)
	}
	if entries[1].Component != "health" {
		t.Fatalf("expected triggering component recorded, got %q", entries[1].Component)
	}
	if entries[0].EntityID != entity.ID() {
		t.Fatalf("expected entity %d, got %d", entity.ID(), entries[0].EntityID)
	}
}

func TestMemoryStoreListLimit(t *testing.T) {
	store := NewMemoryStore()
	for i := 1; i <= 5; i++ {
		err := store.Append(context.Background(), Entry{Seq: uint64(i)})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	entries, err := store.List(context.Background(), 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 || entries[0].Seq != 4 || entries[1].Seq != 5 {
		t.Fatalf("expected the 2 most recent entries oldest first, got %+v", entries)
	}
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("VOXELFORGE_TEST_JOURNAL_DSN")
	if dsn == "" {
		t.Skip("VOXELFORGE_TEST_JOURNAL_DSN not set")
	}
	ctx := context.Background()
	store, err := NewPostgresStore(ctx, dsn, zap.NewNop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer store.Close()

	rec := NewRecorder(store, zap.NewNop())
	ecsStore := ecs.NewStore()
	entity := ecsStore.Create()

	rec.Start()
	rec.Record(entity, recordedEvent{Amount: 9}, nil)

	entries, err := store.List(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].EventType != "Damage" {
		t.Fatalf("expected the recorded entry back, got %+v", entries)
	}
}
