package ports

import (
	"context"

	"github.com/glevine/backdropy/internal/domain"
)

// TaskRunner executes named tasks. The HTTP adapter depends on this
// interface rather than on the application-layer runner directly.
type TaskRunner interface {
	// Tasks lists the registered task definitions.
	Tasks() []domain.Task

	// Run executes the named task and reports the outcome. The context
	// carries the caller's scopes; the run nests its own beneath them.
	Run(ctx context.Context, name string) (domain.TaskRun, error)
}
