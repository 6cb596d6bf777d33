package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glevine/backdropy/internal/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubChecker struct {
	name string
	err  error
}

func (s *stubChecker) Name() string { return s.name }

func (s *stubChecker) Check(_ context.Context) error { return s.err }

func newHealthEngine(t *testing.T, checkers ...ports.HealthChecker) *gin.Engine {
	t.Helper()

	registry := ports.NewHealthRegistry()
	for _, c := range checkers {
		require.NoError(t, registry.Register(c))
	}

	handler := NewHealthHandler(registry, NewBuildInfo("1.2.3", "abc1234", "2026-01-01T00:00:00Z"))

	engine := gin.New()
	handler.RegisterHealthRoutesOnEngine(engine)

	return engine
}

func TestLiveness(t *testing.T) {
	engine := newHealthEngine(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/-/live", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestReadiness_Healthy(t *testing.T) {
	engine := newHealthEngine(t, &stubChecker{name: "runner"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/-/ready", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}

func TestReadiness_Unhealthy(t *testing.T) {
	engine := newHealthEngine(t,
		&stubChecker{name: "runner"},
		&stubChecker{name: "log-sink", err: errors.New("disk full")},
	)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/-/ready", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "disk full")
}

func TestBuildInfoEndpoint(t *testing.T) {
	engine := newHealthEngine(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/-/build", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var info BuildInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, "abc1234", info.Commit)
	assert.NotEmpty(t, info.GoVersion)
}

func TestMetricsEndpoint(t *testing.T) {
	engine := newHealthEngine(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/-/metrics", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
