// Package sim runs the simulation tick loop that drives the event engine.
package sim

import (
	"context"
	"time"

	"github.com/voxelforge/voxelforge-server/internal/event"
	"go.uber.org/zap"
)

// TickFunc runs once per tick on the owning goroutine, after pending events
// are drained.
type TickFunc func(tick uint64)

// Loop drains the event engine's pending queue once per tick and then runs
// the registered tick functions. Run must be called on the goroutine that
// owns the event system.
type Loop struct {
	logger *zap.Logger
	events *event.System
	rate   int
	ticks  []TickFunc
}

// NewLoop creates a loop ticking rate times per second.
func NewLoop(events *event.System, rate int, logger *zap.Logger) *Loop {
	return &Loop{
		logger: logger,
		events: events,
		rate:   rate,
	}
}

// OnTick registers a per-tick callback. Not safe after Run starts.
func (l *Loop) OnTick(fn TickFunc) {
	l.ticks = append(l.ticks, fn)
}

// Run blocks, ticking until the context is cancelled.
func (l *Loop) Run(ctx context.Context) {
	interval := time.Second / time.Duration(l.rate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	l.logger.Info("simulation loop started",
		zap.Int("tick_rate", l.rate),
		zap.Duration("interval", interval),
	)

	var tick uint64
	for {
		select {
		case <-ctx.Done():
			// Final drain so queued submissions are not lost on shutdown.
			l.events.Process()
			l.logger.Info("simulation loop stopped", zap.Uint64("ticks", tick))
			return
		case <-ticker.C:
			tick++
			l.events.Process()
			for _, fn := range l.ticks {
				fn(tick)
			}
		}
	}
}
