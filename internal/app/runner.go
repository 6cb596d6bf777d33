// Package app contains application services that orchestrate use cases.
// This is the application layer in Clean Architecture - it coordinates
// domain logic and infrastructure through ports.
//
// The task runner is the main consumer of the backdrop context stack:
// every task run opens a scope named after the task, every step runs
// inside a nested scope named after the step, and all log lines emitted
// below pick the names up from the snapshot without any parameter
// threading.
package app

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/glevine/backdropy/internal/domain"
	"github.com/glevine/backdropy/internal/platform/logging"
	"github.com/glevine/backdropy/pkg/backdrop"
)

// Step is one unit of work within a task.
type Step struct {
	// Name identifies the step in logs and run results.
	Name string

	// Run executes the step. It receives the context carrying the
	// enclosing scopes, so logging inside the step is already enriched.
	Run func(ctx context.Context) error
}

// Runner executes registered tasks step by step.
type Runner struct {
	logger *slog.Logger
	tasks  map[string]domain.Task
	steps  map[string][]Step
}

// RunnerConfig holds optional configuration for the runner.
type RunnerConfig struct {
	Logger *slog.Logger
}

// NewRunner creates a task runner.
func NewRunner(cfg *RunnerConfig) *Runner {
	logger := slog.Default()
	if cfg != nil && cfg.Logger != nil {
		logger = cfg.Logger
	}

	return &Runner{
		logger: logger,
		tasks:  make(map[string]domain.Task),
		steps:  make(map[string][]Step),
	}
}

// Register adds a task definition. Registering a name twice replaces the
// previous definition.
func (r *Runner) Register(task domain.Task, steps []Step) {
	r.tasks[task.Name] = task
	r.steps[task.Name] = steps
}

// Tasks lists the registered task definitions sorted by name.
func (r *Runner) Tasks() []domain.Task {
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)

	tasks := make([]domain.Task, 0, len(names))
	for _, name := range names {
		tasks = append(tasks, r.tasks[name])
	}
	return tasks
}

// Run executes the named task. The whole run happens inside a scope
// carrying the task name; each step additionally runs inside its own
// nested scope. A failing step aborts the run, and by the time the error
// reaches the caller both the step scope and the task scope are closed.
func (r *Runner) Run(ctx context.Context, name string) (domain.TaskRun, error) {
	task, ok := r.tasks[name]
	if !ok {
		return domain.TaskRun{}, domain.NewNotFoundError("task", name)
	}

	start := time.Now()

	ctx, sc := backdrop.Enter(ctx, backdrop.String("task", task.Name))
	defer sc.Close()

	log := logging.FromContextOr(ctx, r.logger)
	log.InfoContext(ctx, "task started", slog.Int("steps", len(r.steps[name])))

	run := domain.TaskRun{Task: task.Name, Status: domain.RunStatusSucceeded}

	var err error
	if task.Parallel {
		run.StepsCompleted, err = r.runParallel(ctx, task, r.steps[name])
	} else {
		run.StepsCompleted, err = r.runSequential(ctx, r.steps[name])
	}

	run.Duration = time.Since(start)

	if err != nil {
		run.Status = domain.RunStatusFailed

		var stepErr *domain.StepError
		if errors.As(err, &stepErr) {
			run.FailedStep = stepErr.Step
		}

		log.ErrorContext(ctx, "task failed",
			slog.String("failed_step", run.FailedStep),
			slog.Duration("duration", run.Duration),
			slog.Any("error", err),
		)

		return run, err
	}

	log.InfoContext(ctx, "task completed", slog.Duration("duration", run.Duration))

	return run, nil
}

// runSequential executes steps in order, stopping at the first failure.
func (r *Runner) runSequential(ctx context.Context, steps []Step) (int, error) {
	completed := 0
	for _, st := range steps {
		if err := r.runStep(ctx, st); err != nil {
			return completed, err
		}
		completed++
	}
	return completed, nil
}

// runStep wraps one step with a scope carrying its name. The wrapper
// closes the scope before any error propagates, so a failed step never
// leaks its frame into the task scope.
func (r *Runner) runStep(ctx context.Context, st Step) error {
	wrapped := backdrop.Contextual(func(ctx context.Context) error {
		log := logging.FromContextOr(ctx, r.logger)
		log.DebugContext(ctx, "step started")

		if err := st.Run(ctx); err != nil {
			return err
		}

		log.DebugContext(ctx, "step completed")
		return nil
	}, backdrop.String("step", st.Name))

	if err := wrapped(ctx); err != nil {
		task, _ := backdrop.SnapshotFrom(ctx).Get("task")
		taskName, _ := task.(string)
		return domain.NewStepError(taskName, st.Name, err)
	}

	return nil
}
