package logging

import (
	"context"
	"log/slog"

	"github.com/glevine/backdropy/pkg/backdrop"
)

// BackdropHandler is an slog.Handler that decorates records with the
// backdrop snapshot bound to the logging context. By default each snapshot
// pair becomes a structured attr; in prefix mode the snapshot is rendered
// as a "[k1=v1][k2=v2]" literal prepended to the message, which keeps
// plain-text logs greppable by context.
type BackdropHandler struct {
	inner  slog.Handler
	prefix bool
}

// BackdropHandlerOptions configures snapshot rendering.
type BackdropHandlerOptions struct {
	// Prefix switches from structured attrs to the bracketed message
	// prefix. An empty snapshot leaves the message untouched.
	Prefix bool
}

// NewBackdropHandler wraps inner with backdrop snapshot enrichment.
func NewBackdropHandler(inner slog.Handler, opts BackdropHandlerOptions) *BackdropHandler {
	return &BackdropHandler{inner: inner, prefix: opts.Prefix}
}

// Enabled reports whether the inner handler handles records at the given
// level.
func (h *BackdropHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle decorates the record with the snapshot read from ctx and passes
// it on. Snapshot order is preserved, so rendered output is reproducible.
func (h *BackdropHandler) Handle(ctx context.Context, r slog.Record) error { //nolint:gocritic // slog.Handler interface requires value
	snap := backdrop.SnapshotFrom(ctx)
	if len(snap) == 0 {
		return h.inner.Handle(ctx, r)
	}

	if h.prefix {
		decorated := slog.NewRecord(r.Time, r.Level, snap.Prefix()+" "+r.Message, r.PC)
		r.Attrs(func(a slog.Attr) bool {
			decorated.AddAttrs(a)
			return true
		})
		return h.inner.Handle(ctx, decorated)
	}

	decorated := r.Clone()
	for _, f := range snap {
		decorated.AddAttrs(slog.Any(f.Key, f.Value))
	}
	return h.inner.Handle(ctx, decorated)
}

// WithAttrs returns a new BackdropHandler whose inner handler carries the
// given attributes.
func (h *BackdropHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &BackdropHandler{inner: h.inner.WithAttrs(attrs), prefix: h.prefix}
}

// WithGroup returns a new BackdropHandler with the given group opened on
// the inner handler.
func (h *BackdropHandler) WithGroup(name string) slog.Handler {
	return &BackdropHandler{inner: h.inner.WithGroup(name), prefix: h.prefix}
}
