package app

import (
	"context"
	"errors"
	"time"

	"github.com/glevine/backdropy/internal/domain"
	"github.com/glevine/backdropy/internal/platform/logging"
)

// RegisterBuiltinTasks registers the tasks the service ships with. They
// are deliberately small; their value is that every line they log is
// attributed to the right task, step and shard by the context stack.
func RegisterBuiltinTasks(r *Runner) {
	r.Register(domain.Task{
		Name:  "reindex",
		Steps: []string{"fetch", "transform", "store"},
	}, []Step{
		{Name: "fetch", Run: simulateWork(20 * time.Millisecond)},
		{Name: "transform", Run: simulateWork(10 * time.Millisecond)},
		{Name: "store", Run: simulateWork(15 * time.Millisecond)},
	})

	r.Register(domain.Task{
		Name:     "warm-cache",
		Steps:    []string{"catalog", "profiles", "search"},
		Parallel: true,
	}, []Step{
		{Name: "catalog", Run: simulateWork(25 * time.Millisecond)},
		{Name: "profiles", Run: simulateWork(25 * time.Millisecond)},
		{Name: "search", Run: simulateWork(25 * time.Millisecond)},
	})

	r.Register(domain.Task{
		Name:  "sweep-shards",
		Steps: []string{"sweep"},
	}, []Step{
		{Name: "sweep", Run: func(ctx context.Context) error {
			return ForEach(ctx, "shard", []int{0, 1, 2, 3}, func(ctx context.Context, _ int) error {
				logging.FromContext(ctx).InfoContext(ctx, "shard swept")
				return nil
			})
		}},
	})
}

// simulateWork returns a step body that sleeps for d, respecting
// cancellation.
func simulateWork(d time.Duration) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		logging.FromContext(ctx).InfoContext(ctx, "working")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
			return nil
		}
	}
}

// Name implements ports.HealthChecker.
func (r *Runner) Name() string {
	return "runner"
}

// Check implements ports.HealthChecker. The runner is unhealthy only
// when it has nothing to run, which means registration was skipped.
func (r *Runner) Check(context.Context) error {
	if len(r.tasks) == 0 {
		return errors.New("no tasks registered")
	}

	return nil
}
