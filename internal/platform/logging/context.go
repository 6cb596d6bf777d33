package logging

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// FromContext extracts the logger from context.
// Returns the process default logger if no logger is found or ctx is nil.
//
// Request-scoped metadata (request id, task, trace fields) travels on the
// backdrop stack, not on the logger: the BackdropHandler reads it from the
// context passed to each log call, so the same logger instance can be
// shared across requests.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}

	if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return logger
	}

	return slog.Default()
}

// FromContextOr is FromContext with an explicit fallback for components
// that hold their own logger (the task runner, background workers).
func FromContextOr(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if fallback == nil {
		return FromContext(ctx)
	}

	if ctx != nil {
		if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
			return logger
		}
	}

	return fallback
}

// WithContext stores a logger in the context.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// SetDefault sets the default logger used when no logger is in context.
func SetDefault(logger *slog.Logger) {
	slog.SetDefault(logger)
}
