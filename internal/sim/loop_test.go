package sim

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/voxelforge/voxelforge-server/internal/ecs"
	"github.com/voxelforge/voxelforge-server/internal/event"
	"go.uber.org/zap"
)

type tickEvent struct{}

func (tickEvent) EventType() event.Type { return "Ping" }

type pingReceiver struct {
	count atomic.Int64
}

func (r *pingReceiver) OnEvent(ev event.Event, entity ecs.EntityRef) {
	r.count.Add(1)
}

func TestLoopDrainsPendingSubmissions(t *testing.T) {
	reg := event.NewTypeRegistry(zap.NewNop())
	sys := event.NewSystem(reg, event.NoNetwork{}, nil, zap.NewNop())
	if err := sys.RegisterType(event.TypeInfo{ID: "test:ping", Type: "Ping"}); err != nil {
		t.Fatalf("register type: %v", err)
	}

	recv := &pingReceiver{}
	sys.RegisterReceiver(recv, "Ping", event.PriorityNormal)

	store := ecs.NewStore()
	entity := store.Create()

	loop := NewLoop(sys, 100, zap.NewNop())

	var ticks atomic.Int64
	loop.OnTick(func(tick uint64) {
		ticks.Store(int64(tick))
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		// Submissions from this goroutine land on the pending queue.
		for i := 0; i < 5; i++ {
			sys.Send(entity, tickEvent{})
		}
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	loop.Run(ctx)

	if got := recv.count.Load(); got != 5 {
		t.Fatalf("expected 5 dispatched submissions, got %d", got)
	}
	if ticks.Load() == 0 {
		t.Fatal("expected at least one tick callback")
	}
	if sys.PendingCount() != 0 {
		t.Fatalf("expected drained queue after shutdown, got %d", sys.PendingCount())
	}
}
