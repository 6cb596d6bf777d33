// Package backdrop provides a nested key/value context store used to enrich
// log output with ambient metadata (request id, task name, trace fields)
// without threading parameters through every call.
//
// # Stacks, frames and snapshots
//
// A Stack is an ordered sequence of frames. Push opens a new frame whose
// assignments shadow same-named keys in ancestor frames; Pop removes the top
// frame and restores exactly the view that existed before the matching Push.
// Snapshot flattens the stack into an ordered key/value view, last
// assignment per key winning:
//
//	stack := backdrop.New()
//	stack.Push(backdrop.String("request_id", "r1"))
//	stack.Push(backdrop.String("task", "t1"))
//	stack.Snapshot() // [request_id=r1][task=t1]
//	stack.Pop()
//	stack.Snapshot() // [request_id=r1]
//
// # Scopes
//
// Scope pairs a Push with a guaranteed Pop. Close is idempotent and meant
// for defer, so the frame is removed on every exit path, panics included:
//
//	sc := stack.Scope(backdrop.String("task", "reindex"))
//	defer sc.Close()
//	sc.Add(backdrop.Int("batch", 7))
//
// # Logical-path association
//
// Goroutines multiplex over OS threads, so a stack is bound to the logical
// execution path through a context.Context value rather than to the thread
// that happens to run it:
//
//	ctx, sc := backdrop.Enter(ctx, backdrop.String("request_id", id))
//	defer sc.Close()
//	svc.Process(ctx) // anything below reads backdrop.SnapshotFrom(ctx)
//
// A goroutine started with a fresh context begins with an empty stack; a
// Stack itself is not safe for concurrent use and must stay on one logical
// execution path at a time.
package backdrop
