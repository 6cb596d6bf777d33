package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/glevine/backdropy/pkg/backdrop"
)

// ContextKeyScope is the gin context key under which the request scope is
// stored for handler access.
const ContextKeyScope = "backdrop_scope"

// Backdrop returns middleware that opens a backdrop scope for the
// lifetime of one inbound request. Each request gets its own stack (one
// logical execution path per request), bound to the request context, with
// a scope carrying at least the request route plus the ids minted by the
// RequestID and CorrelationID middleware. The scope is closed via defer,
// so a panicking handler still leaves the stack balanced for whatever
// logging the Recovery middleware does afterwards.
//
// Must run after RequestID and CorrelationID.
func Backdrop() gin.HandlerFunc {
	return func(c *gin.Context) {
		stack := backdrop.New()

		fields := []backdrop.Field{
			backdrop.String("request", c.Request.Method+" "+c.Request.URL.Path),
		}
		if id := RequestIDFromContext(c.Request.Context()); id != "" {
			fields = append(fields, backdrop.String("request_id", id))
		}
		if id := CorrelationIDFromContext(c.Request.Context()); id != "" {
			fields = append(fields, backdrop.String("correlation_id", id))
		}

		sc := stack.Scope(fields...)
		defer sc.Close()

		c.Set(ContextKeyScope, sc)
		c.Request = c.Request.WithContext(backdrop.WithStack(c.Request.Context(), stack))

		c.Next()
	}
}

// GetScope extracts the request scope from the gin.Context. Returns nil
// if the Backdrop middleware is not applied.
func GetScope(c *gin.Context) *backdrop.Scope {
	if v, exists := c.Get(ContextKeyScope); exists {
		if sc, ok := v.(*backdrop.Scope); ok {
			return sc
		}
	}

	return nil
}

// AddToScope merges assignments into the request scope, if present.
// Handlers use it to attach route-specific metadata (resource ids, task
// names) that should appear on every later log line of the request.
func AddToScope(c *gin.Context, fields ...backdrop.Field) {
	if sc := GetScope(c); sc != nil {
		sc.Add(fields...)
	}
}
