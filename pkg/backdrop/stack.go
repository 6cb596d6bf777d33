package backdrop

import (
	"fmt"
	"strings"

	"github.com/mohae/deepcopy"
)

// frame is one nesting level. Each frame stores the full flattened view
// (parent view copied at push time plus its own assignments), so Snapshot
// only has to read the top frame and Pop restores every key at once.
type frame struct {
	keys   []string
	values map[string]any
}

func newFrame(parent *frame) *frame {
	f := &frame{values: make(map[string]any)}
	if parent != nil {
		f.keys = append(f.keys, parent.keys...)
		for k, v := range parent.values {
			f.values[k] = v
		}
	}
	return f
}

// set records one assignment. The value is deep-copied so that later
// mutation of the caller's object cannot alter what this frame recorded.
func (f *frame) set(key string, value any) {
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = deepcopy.Copy(value)
}

// Stack is an ordered sequence of frames with the root frame always
// present. A Stack belongs to exactly one logical execution path and is
// not safe for concurrent use; goroutines that need context each get
// their own stack (see WithStack and Enter).
type Stack struct {
	frames []*frame
}

// New creates a stack containing only the empty root frame.
func New() *Stack {
	return &Stack{frames: []*frame{newFrame(nil)}}
}

func (s *Stack) top() *frame {
	return s.frames[len(s.frames)-1]
}

// Push opens a new top frame containing the given assignments, shadowing
// any same-named keys in ancestor frames. Values are copied at push time.
func (s *Stack) Push(fields ...Field) {
	f := newFrame(s.top())
	for _, fld := range fields {
		f.set(fld.Key, fld.Value)
	}
	s.frames = append(s.frames, f)
}

// Pop removes the current top frame, restoring the view that existed
// immediately before the matching Push for every key. Popping with only
// the root frame left is a no-op: logging bookkeeping mistakes must not
// crash the program.
func (s *Stack) Pop() {
	if len(s.frames) == 1 {
		return
	}
	s.frames = s.frames[:len(s.frames)-1]
}

// Add merges the given assignments into the current top frame without
// opening a new nesting level. A same-frame key collision overwrites; the
// added values disappear together with the enclosing frame's own Pop.
func (s *Stack) Add(fields ...Field) {
	top := s.top()
	for _, fld := range fields {
		top.set(fld.Key, fld.Value)
	}
}

// Depth reports the number of pushed frames (the root frame not counted).
func (s *Stack) Depth() int {
	return len(s.frames) - 1
}

// Snapshot returns the flattened view of the stack: for each key the value
// from the most recent frame that assigned it, ordered by first-seen key
// from root to top.
func (s *Stack) Snapshot() Snapshot {
	top := s.top()
	if len(top.keys) == 0 {
		return nil
	}
	snap := make(Snapshot, 0, len(top.keys))
	for _, k := range top.keys {
		snap = append(snap, Field{Key: k, Value: top.values[k]})
	}
	return snap
}

// Snapshot is the flattened key/value view of a stack at one point in
// time. It is a plain ordered slice; mutating it does not affect the stack
// that produced it.
type Snapshot []Field

// Get returns the value for key and whether the snapshot contains it.
func (s Snapshot) Get(key string) (any, bool) {
	for _, f := range s {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Prefix renders the snapshot as a bracketed literal prefix in snapshot
// order, for example "[request_id=r1][task=t1]". An empty snapshot renders
// as the empty string.
func (s Snapshot) Prefix() string {
	if len(s) == 0 {
		return ""
	}
	var b strings.Builder
	for _, f := range s {
		fmt.Fprintf(&b, "[%s=%v]", f.Key, f.Value)
	}
	return b.String()
}
