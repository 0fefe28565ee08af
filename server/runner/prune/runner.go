// Package prune periodically drops rate limiter buckets of idle clients.
package prune

import (
	"context"
	"log/slog"
	"time"
)

// Pruner removes idle entries and reports how many were dropped.
type Pruner interface {
	Prune() int
}

type Runner struct {
	pruner   Pruner
	interval time.Duration
}

// NewRunner creates a runner pruning every interval.
func NewRunner(pruner Pruner, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Runner{
		pruner:   pruner,
		interval: interval,
	}
}

// Run starts the background task. It returns when ctx is done.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.RunOnce(ctx)
		case <-ctx.Done():
			slog.Debug("prune runner stopped")
			return
		}
	}
}

// RunOnce prunes once.
func (r *Runner) RunOnce(_ context.Context) {
	if removed := r.pruner.Prune(); removed > 0 {
		slog.Debug("pruned idle rate limiters", "count", removed)
	}
}
