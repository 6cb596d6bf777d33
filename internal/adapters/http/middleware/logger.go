package middleware

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/glevine/backdropy/internal/platform/logging"
)

// WithLogger returns middleware that binds the given logger into every
// request context, so later middleware and handlers resolve it via
// logging.FromContext instead of falling back to the process default.
// Apply it first in the chain. A nil logger is a no-op.
func WithLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if logger != nil {
			ctx := logging.WithContext(c.Request.Context(), logger)
			c.Request = c.Request.WithContext(ctx)
		}

		c.Next()
	}
}
