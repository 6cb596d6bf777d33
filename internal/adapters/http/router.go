package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/glevine/backdropy/internal/adapters/http/handlers"
	"github.com/glevine/backdropy/internal/adapters/http/middleware"
	"github.com/glevine/backdropy/internal/platform/config"
	"github.com/glevine/backdropy/internal/platform/telemetry"
)

// DefaultRequestTimeout is the default timeout for API requests.
const DefaultRequestTimeout = 30 * time.Second

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	// Logger is the structured logger for request logging.
	Logger *slog.Logger

	// AppConfig contains application configuration.
	AppConfig *config.AppConfig

	// HealthHandler handles health check endpoints.
	HealthHandler *handlers.HealthHandler

	// TaskHandler handles the task API.
	TaskHandler *handlers.TaskHandler

	// Timeout is the default request timeout.
	Timeout time.Duration
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware order (first to last):
//  1. Logger binding - make the configured logger available downstream
//  2. Recovery - catch panics first
//  3. Request ID - generate/extract request ID
//  4. Correlation ID - distributed tracing correlation
//  5. Backdrop - per-request context stack seeded with the ids above
//  6. OpenTelemetry tracing, then metrics (adds trace_id to the stack)
//  7. Logging - request logging, enriched from the request scope
//  8. Timeout - request deadline on /api/v1
//
// Route groups:
//   - /-/ (internal): health endpoints
//   - /api/v1/ (public API): task endpoints
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.Use(
		middleware.WithLogger(cfg.Logger),
		middleware.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
		middleware.Backdrop(),
		telemetry.TracingMiddleware(cfg.AppConfig.Name),
		telemetry.Middleware(cfg.AppConfig.Name),
		middleware.Logging(cfg.Logger),
	)

	// Health endpoints skip the API timeout so probes stay cheap.
	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutesOnEngine(engine)
	}

	apiV1 := engine.Group("/api/v1")
	if cfg.Timeout > 0 {
		apiV1.Use(middleware.SimpleTimeout(cfg.Timeout))
	}

	if cfg.TaskHandler != nil {
		cfg.TaskHandler.RegisterTaskRoutes(apiV1)
	}
}

// SetupMinimalRouter sets up health endpoints only. Useful for tests or
// lightweight deployments.
func SetupMinimalRouter(engine *gin.Engine, logger *slog.Logger, healthHandler *handlers.HealthHandler) {
	engine.Use(
		middleware.WithLogger(logger),
		middleware.Recovery(logger),
		middleware.RequestID(),
	)

	if healthHandler != nil {
		healthHandler.RegisterHealthRoutesOnEngine(engine)
	}
}

// NewDefaultRouterConfig creates a RouterConfig with sensible defaults.
func NewDefaultRouterConfig(
	logger *slog.Logger,
	appCfg *config.AppConfig,
	healthHandler *handlers.HealthHandler,
	taskHandler *handlers.TaskHandler,
) RouterConfig {
	return RouterConfig{
		Logger:        logger,
		AppConfig:     appCfg,
		HealthHandler: healthHandler,
		TaskHandler:   taskHandler,
		Timeout:       DefaultRequestTimeout,
	}
}
