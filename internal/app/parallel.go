package app

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/glevine/backdropy/internal/domain"
	"github.com/glevine/backdropy/internal/platform/logging"
	"github.com/glevine/backdropy/pkg/backdrop"
)

// runParallel executes independent steps concurrently and returns on the
// first error; remaining goroutines are canceled through the group
// context.
//
// A backdrop stack belongs to one logical execution path, so each worker
// binds a fresh stack seeded with the enclosing snapshot instead of
// sharing the caller's. Sharing would interleave pushes and pops from
// sibling steps and break the restore-on-pop guarantee.
func (r *Runner) runParallel(ctx context.Context, task domain.Task, steps []Step) (int, error) {
	parent := backdrop.SnapshotFrom(ctx)

	g, ctx := errgroup.WithContext(ctx)

	var completed atomic.Int64
	for _, st := range steps {
		g.Go(func() error {
			wctx := backdrop.WithStack(ctx, backdrop.New())
			wctx, sc := backdrop.Enter(wctx, parent...)
			defer sc.Close()

			wctx, stepScope := backdrop.Enter(wctx, backdrop.String("step", st.Name))
			defer stepScope.Close()

			log := logging.FromContextOr(wctx, r.logger)
			log.DebugContext(wctx, "step started")

			if err := st.Run(wctx); err != nil {
				return domain.NewStepError(task.Name, st.Name, err)
			}

			log.DebugContext(wctx, "step completed")
			completed.Add(1)

			return nil
		})
	}

	err := g.Wait()

	return int(completed.Load()), err
}

// ForEach runs fn once per item concurrently, each invocation on its own
// backdrop stack carrying an item field. Results are discarded; the first
// error cancels the rest.
func ForEach[T any](ctx context.Context, key string, items []T, fn func(ctx context.Context, item T) error) error {
	parent := backdrop.SnapshotFrom(ctx)

	g, ctx := errgroup.WithContext(ctx)
	for _, item := range items {
		g.Go(func() error {
			wctx := backdrop.WithStack(ctx, backdrop.New())
			wctx, sc := backdrop.Enter(wctx, parent...)
			defer sc.Close()

			wctx, itemScope := backdrop.Enter(wctx, backdrop.KV(key, item))
			defer itemScope.Close()

			return fn(wctx, item)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	return nil
}
