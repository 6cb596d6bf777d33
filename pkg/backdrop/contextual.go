package backdrop

import "context"

// Contextual wraps fn so that each invocation runs inside a scope carrying
// the given assignments. The fields are bound once, at wrap time; callers
// that need per-invocation values should use Enter at the call site
// instead. The scope is closed before fn's error or panic reaches the
// caller, and neither is altered on the way up.
func Contextual(fn func(context.Context) error, fields ...Field) func(context.Context) error {
	return func(ctx context.Context) error {
		ctx, sc := Enter(ctx, fields...)
		defer sc.Close()
		return fn(ctx)
	}
}

// ContextualFunc is Contextual for callables bound to an explicit stack
// rather than a context value.
func (s *Stack) ContextualFunc(fn func() error, fields ...Field) func() error {
	return func() error {
		sc := s.Scope(fields...)
		defer sc.Close()
		return fn()
	}
}
