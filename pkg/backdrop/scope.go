package backdrop

// Scope pairs a Push with a guaranteed Pop. Obtain one from Stack.Scope or
// Enter, then defer Close so the frame is removed on every exit path,
// normal return and panic alike. Scopes nest arbitrarily but must close in
// LIFO order; closing an inner scope never touches an ancestor's frame.
type Scope struct {
	stack  *Stack
	frame  *frame
	closed bool
}

// Scope pushes a frame with the given assignments and returns a handle
// that can extend and later close it.
func (s *Stack) Scope(fields ...Field) *Scope {
	s.Push(fields...)
	return &Scope{stack: s, frame: s.top()}
}

// Add merges assignments into this scope's frame. After Close it is a
// no-op.
func (sc *Scope) Add(fields ...Field) {
	if sc.closed {
		return
	}
	for _, fld := range fields {
		sc.frame.set(fld.Key, fld.Value)
	}
}

// Close pops the frame opened by this scope. Close is idempotent: only
// the first call pops, so a deferred Close after an explicit one cannot
// unbalance the stack.
func (sc *Scope) Close() {
	if sc.closed {
		return
	}
	sc.closed = true
	sc.stack.Pop()
}
