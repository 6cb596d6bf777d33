package backdrop

import "context"

type ctxKey struct{}

// WithStack binds a stack to the context. Child contexts derived from the
// returned context share the same stack, which keeps shadowing and
// restoration correct even when a handler body resumes on a different
// goroutine: the stack follows the logical execution path, not the
// worker running it.
func WithStack(ctx context.Context, s *Stack) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext extracts the stack bound to the context. If none is bound
// (or ctx is nil) it returns a fresh empty stack, mirroring lazy
// per-path creation: reads never fail, they just see no context.
func FromContext(ctx context.Context) *Stack {
	if ctx == nil {
		return New()
	}
	if s, ok := ctx.Value(ctxKey{}).(*Stack); ok {
		return s
	}
	return New()
}

// SnapshotFrom returns the flattened view of the stack bound to the
// context, or an empty snapshot if none is bound.
func SnapshotFrom(ctx context.Context) Snapshot {
	return FromContext(ctx).Snapshot()
}

// Enter opens a scope on the context's stack, binding a fresh stack first
// if the context carries none. The returned context must be used for the
// guarded body; the returned scope must be closed (normally via defer)
// before control leaves it.
func Enter(ctx context.Context, fields ...Field) (context.Context, *Scope) {
	if ctx == nil {
		ctx = context.Background()
	}
	s, ok := ctx.Value(ctxKey{}).(*Stack)
	if !ok {
		s = New()
		ctx = WithStack(ctx, s)
	}
	return ctx, s.Scope(fields...)
}
