package event

import (
	"sync"

	"github.com/voxelforge/voxelforge-server/internal/ecs"
)

// pendingEvent is a submission from a non-owning goroutine, held until the
// owning goroutine drains the queue.
type pendingEvent struct {
	entity    ecs.EntityRef
	event     Event
	component ecs.Component
}

// pendingQueue is the engine's only concurrency-safe structure: a FIFO with
// any number of producers and a single consumer (the owning goroutine during
// Process).
type pendingQueue struct {
	mu    sync.Mutex
	items []pendingEvent
}

func (q *pendingQueue) push(pe pendingEvent) {
	q.mu.Lock()
	q.items = append(q.items, pe)
	q.mu.Unlock()
}

// poll removes and returns the oldest entry. Entries pushed concurrently with
// a drain may land on either side of it; they are picked up next tick.
func (q *pendingQueue) poll() (pendingEvent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return pendingEvent{}, false
	}
	pe := q.items[0]
	q.items = q.items[1:]
	return pe, true
}

func (q *pendingQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
