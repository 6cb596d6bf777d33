// Package ports defines the interfaces between the application core and
// its adapters.
package ports

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/glevine/backdropy/pkg/backdrop"
)

// ErrDuplicateChecker is returned when registering a health checker under
// a name that is already taken.
var ErrDuplicateChecker = errors.New("duplicate health checker")

// HealthChecker is implemented by components that can report their health.
// Adapters register themselves with the HealthRegistry at startup.
type HealthChecker interface {
	// Name identifies the component in health responses.
	Name() string

	// Check returns nil when the component is healthy. Implementations
	// should respect context cancellation and deadlines.
	Check(ctx context.Context) error
}

// HealthRegistry aggregates health checks from multiple components.
type HealthRegistry interface {
	// Register adds a checker. Names must be unique.
	Register(checker HealthChecker) error

	// CheckAll runs every registered check and returns the aggregate.
	CheckAll(ctx context.Context) *HealthResult
}

// HealthStatus is the overall health state.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthResult is the aggregate of one CheckAll pass.
type HealthResult struct {
	Status    HealthStatus            `json:"status"`
	Checks    map[string]*CheckResult `json:"checks"`
	Timestamp time.Time               `json:"timestamp"`
}

// CheckResult is the outcome of a single check.
type CheckResult struct {
	Status   HealthStatus  `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
}

// DefaultHealthRegistry is a thread-safe HealthRegistry.
type DefaultHealthRegistry struct {
	mu       sync.RWMutex
	checkers []HealthChecker
}

// NewHealthRegistry creates an empty registry.
func NewHealthRegistry() *DefaultHealthRegistry {
	return &DefaultHealthRegistry{}
}

// Register adds a health checker to the registry.
func (r *DefaultHealthRegistry) Register(checker HealthChecker) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := checker.Name()
	for _, c := range r.checkers {
		if c.Name() == name {
			return fmt.Errorf("%w: %s", ErrDuplicateChecker, name)
		}
	}

	r.checkers = append(r.checkers, checker)

	return nil
}

// CheckAll runs all registered checks concurrently. Each check executes
// on its own context stack carrying a check field, so anything the
// checker logs is attributed to it. A check failure is captured in the
// result rather than aborting the sweep.
func (r *DefaultHealthRegistry) CheckAll(ctx context.Context) *HealthResult {
	r.mu.RLock()
	checkers := make([]HealthChecker, len(r.checkers))
	copy(checkers, r.checkers)
	r.mu.RUnlock()

	result := &HealthResult{
		Status:    HealthStatusHealthy,
		Checks:    make(map[string]*CheckResult),
		Timestamp: time.Now(),
	}

	if len(checkers) == 0 {
		return result
	}

	var mu sync.Mutex
	g := new(errgroup.Group)

	for _, c := range checkers {
		g.Go(func() error {
			cctx := backdrop.WithStack(ctx, backdrop.New())
			cctx, sc := backdrop.Enter(cctx, backdrop.String("check", c.Name()))
			defer sc.Close()

			start := time.Now()
			err := c.Check(cctx)

			cr := &CheckResult{
				Status:   HealthStatusHealthy,
				Duration: time.Since(start),
			}
			if err != nil {
				cr.Status = HealthStatusUnhealthy
				cr.Message = err.Error()
			}

			mu.Lock()
			result.Checks[c.Name()] = cr
			if cr.Status == HealthStatusUnhealthy {
				result.Status = HealthStatusUnhealthy
			}
			mu.Unlock()

			return nil
		})
	}

	_ = g.Wait()

	return result
}
