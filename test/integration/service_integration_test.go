// Package integration contains end-to-end tests exercising the full
// middleware chain, the task runner and the context-aware logging
// together, the way the running service wires them.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapterhttp "github.com/glevine/backdropy/internal/adapters/http"
	"github.com/glevine/backdropy/internal/adapters/http/handlers"
	"github.com/glevine/backdropy/internal/app"
	"github.com/glevine/backdropy/internal/domain"
	"github.com/glevine/backdropy/internal/platform/config"
	"github.com/glevine/backdropy/internal/platform/logging"
	"github.com/glevine/backdropy/internal/ports"
	"github.com/glevine/backdropy/pkg/backdrop"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// syncBuffer serializes writes so concurrent requests can share one log
// sink.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

// newService assembles the service the way cmd/service does, minus the
// listener, with logs captured in the returned buffer.
func newService(t *testing.T) (*gin.Engine, *syncBuffer) {
	t.Helper()

	buf := &syncBuffer{}
	logger := logging.NewWithWriter(&logging.Config{
		Level:         "debug",
		Format:        "json",
		Service:       "backdropy",
		Version:       "test",
		ContextPrefix: true,
	}, buf)

	runner := app.NewRunner(&app.RunnerConfig{Logger: logger})
	app.RegisterBuiltinTasks(runner)

	registry := ports.NewHealthRegistry()
	require.NoError(t, registry.Register(runner))

	engine := gin.New()
	adapterhttp.SetupRouter(engine, adapterhttp.RouterConfig{
		Logger:        logger,
		AppConfig:     &config.AppConfig{Name: "backdropy", Version: "test", Environment: "test"},
		HealthHandler: handlers.NewHealthHandler(registry, handlers.NewBuildInfo("test", "", "")),
		TaskHandler:   handlers.NewTaskHandler(runner),
		Timeout:       10 * time.Second,
	})

	return engine, buf
}

func TestService_RunTaskScenario(t *testing.T) {
	engine, buf := newService(t)

	body := `{"labels":{"tenant":"acme"}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks/reindex/run", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "req-1")
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "succeeded", resp["status"])
	assert.Equal(t, float64(3), resp["stepsCompleted"])

	logs := buf.String()

	// Step logs carry the full nesting: request scope (with the label),
	// the task scope, then the step scope.
	assert.Contains(t, logs, "[request=POST /api/v1/tasks/reindex/run]")
	assert.Contains(t, logs, "[request_id=req-1]")
	assert.Contains(t, logs, "[tenant=acme]")
	assert.Contains(t, logs, "[task=reindex][step=fetch]")
	assert.Contains(t, logs, "[task=reindex][step=store]")

	// After the run the step scopes are gone: the completion line shows
	// the task but no step.
	for _, line := range strings.Split(logs, "\n") {
		if strings.Contains(line, "task completed") {
			assert.Contains(t, line, "[task=reindex]")
			assert.NotContains(t, line, "[step=")
		}
	}
}

func TestService_ParallelTaskIsolation(t *testing.T) {
	engine, buf := newService(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks/warm-cache/run", nil)
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	logs := buf.String()

	// Each parallel step logged under exactly its own scope.
	assert.Contains(t, logs, "[task=warm-cache][step=catalog]")
	assert.Contains(t, logs, "[task=warm-cache][step=profiles]")
	assert.Contains(t, logs, "[task=warm-cache][step=search]")

	// No line carries two step scopes, which would mean stacks leaked
	// between workers.
	for _, line := range strings.Split(logs, "\n") {
		assert.LessOrEqual(t, strings.Count(line, "[step="), 1, line)
	}
}

func TestService_ConcurrentRequestsKeepScopesApart(t *testing.T) {
	engine, buf := newService(t)

	const workers = 8

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func(n int) {
			defer wg.Done()

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks/reindex/run", nil)
			req.Header.Set("X-Request-ID", fmt.Sprintf("req-%d", n))
			engine.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
		}(i)
	}
	wg.Wait()

	logs := buf.String()

	// Every request's id shows up, and never two ids on one line.
	for i := 0; i < workers; i++ {
		assert.Contains(t, logs, fmt.Sprintf("[request_id=req-%d]", i))
	}
	for _, line := range strings.Split(logs, "\n") {
		assert.LessOrEqual(t, strings.Count(line, "[request_id="), 1, line)
	}
}

func TestService_FailedStepReportsAndCleansUp(t *testing.T) {
	buf := &syncBuffer{}
	logger := logging.NewWithWriter(&logging.Config{
		Level:         "debug",
		Format:        "json",
		ContextPrefix: true,
	}, buf)

	runner := app.NewRunner(&app.RunnerConfig{Logger: logger})
	runner.Register(domain.Task{Name: "doomed", Steps: []string{"explode"}}, []app.Step{
		{Name: "explode", Run: func(ctx context.Context) error {
			return domain.NewUnavailableError("index", "offline")
		}},
	})

	registry := ports.NewHealthRegistry()
	require.NoError(t, registry.Register(runner))

	engine := gin.New()
	adapterhttp.SetupRouter(engine, adapterhttp.RouterConfig{
		Logger:        logger,
		AppConfig:     &config.AppConfig{Name: "backdropy", Version: "test", Environment: "test"},
		HealthHandler: handlers.NewHealthHandler(registry, handlers.NewBuildInfo("test", "", "")),
		TaskHandler:   handlers.NewTaskHandler(runner),
		Timeout:       10 * time.Second,
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks/doomed/run", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "STEP_FAILED")

	// The failure line is attributed to the task, not the step: the step
	// scope closed before the error propagated.
	var failedLine string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, "task failed") {
			failedLine = line
		}
	}
	require.NotEmpty(t, failedLine)
	assert.Contains(t, failedLine, "[task=doomed]")
	assert.NotContains(t, failedLine, "[step=")
}

func TestService_HealthEndpoints(t *testing.T) {
	engine, _ := newService(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/-/ready", nil)
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "runner")
}

func TestService_SnapshotSurvivesDetachedUse(t *testing.T) {
	// A snapshot taken inside a request outlives the scopes it came
	// from. This mirrors handing work to a background goroutine.
	ctx, sc := backdrop.Enter(context.Background(), backdrop.String("request_id", "r9"))
	snap := backdrop.SnapshotFrom(ctx)
	sc.Close()

	assert.Equal(t, "[request_id=r9]", snap.Prefix())
}
