package backdrop

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotMap(s Snapshot) map[string]any {
	m := make(map[string]any, len(s))
	for _, f := range s {
		m[f.Key] = f.Value
	}
	return m
}

func TestNew_EmptySnapshot(t *testing.T) {
	s := New()
	assert.Empty(t, s.Snapshot())
	assert.Equal(t, 0, s.Depth())
}

func TestPush_ShadowAndRestore(t *testing.T) {
	s := New()

	s.Push(Int("a", 1))
	s.Push(Int("a", 2))
	assert.Equal(t, map[string]any{"a": 2}, snapshotMap(s.Snapshot()))

	s.Pop()
	assert.Equal(t, map[string]any{"a": 1}, snapshotMap(s.Snapshot()))

	s.Pop()
	assert.Empty(t, s.Snapshot())
}

func TestPush_IndependentKeysPreserved(t *testing.T) {
	s := New()

	s.Push(Int("a", 1))
	s.Push(Int("b", 2))
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, snapshotMap(s.Snapshot()))

	s.Pop()
	assert.Equal(t, map[string]any{"a": 1}, snapshotMap(s.Snapshot()))
}

func TestAdd_MergesIntoCurrentFrame(t *testing.T) {
	s := New()

	s.Push(Int("a", 1))
	s.Add(Int("b", 2))
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, snapshotMap(s.Snapshot()))

	// Both assignments vanish with the single frame that holds them.
	s.Pop()
	assert.Empty(t, s.Snapshot())
}

func TestAdd_SameFrameCollisionOverwrites(t *testing.T) {
	s := New()

	s.Push(Int("a", 1))
	s.Add(Int("a", 9))
	snap := s.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, Field{Key: "a", Value: 9}, snap[0])
}

func TestAdd_OnRootFrame(t *testing.T) {
	s := New()

	s.Add(String("service", "backdropy"))
	assert.Equal(t, map[string]any{"service": "backdropy"}, snapshotMap(s.Snapshot()))

	// Root assignments survive pops because the root frame is never removed.
	s.Pop()
	assert.Equal(t, map[string]any{"service": "backdropy"}, snapshotMap(s.Snapshot()))
}

func TestPop_RootUnderflowIsNoOp(t *testing.T) {
	s := New()

	assert.NotPanics(t, func() {
		s.Pop()
		s.Pop()
	})
	assert.Empty(t, s.Snapshot())
	assert.Equal(t, 0, s.Depth())
}

func TestBalance_SnapshotRestoredAfterMatchedCalls(t *testing.T) {
	s := New()
	s.Push(String("request_id", "r1"))
	before := s.Snapshot()

	s.Push(String("task", "t1"))
	s.Add(Int("attempt", 2))
	s.Push(String("task", "t2"), Bool("dry_run", true))
	s.Pop()
	s.Pop()

	assert.Equal(t, before, s.Snapshot())
}

func TestSnapshot_DeterministicFirstSeenOrder(t *testing.T) {
	s := New()

	s.Push(String("request_id", "r1"), String("user", "u1"))
	s.Push(String("task", "t1"), String("user", "u2"))

	var keys []string
	for _, f := range s.Snapshot() {
		keys = append(keys, f.Key)
	}

	// "user" keeps its first-seen position even though the top frame
	// reassigned it.
	assert.Equal(t, []string{"request_id", "user", "task"}, keys)

	val, ok := s.Snapshot().Get("user")
	require.True(t, ok)
	assert.Equal(t, "u2", val)
}

func TestSnapshot_IsDetachedFromStack(t *testing.T) {
	s := New()
	s.Push(Int("a", 1))

	snap := s.Snapshot()
	snap[0].Value = 99

	val, ok := s.Snapshot().Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, val)
}

func TestPush_DeepCopiesValues(t *testing.T) {
	s := New()

	labels := map[string]string{"env": "prod"}
	s.Push(KV("labels", labels))

	// Mutating the caller's object must not rewrite history.
	labels["env"] = "dev"

	val, ok := s.Snapshot().Get("labels")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"env": "prod"}, val)
}

func TestAdd_DeepCopiesValues(t *testing.T) {
	s := New()
	s.Push()

	tags := []string{"alpha"}
	s.Add(KV("tags", tags))
	tags[0] = "mutated"

	val, ok := s.Snapshot().Get("tags")
	require.True(t, ok)
	assert.Equal(t, []string{"alpha"}, val)
}

func TestSnapshot_Get_MissingKey(t *testing.T) {
	s := New()
	s.Push(Int("a", 1))

	val, ok := s.Snapshot().Get("missing")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestSnapshot_Prefix(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want string
	}{
		{
			name: "empty",
			snap: nil,
			want: "",
		},
		{
			name: "single pair",
			snap: Snapshot{{Key: "request_id", Value: "r1"}},
			want: "[request_id=r1]",
		},
		{
			name: "pairs concatenated without separator",
			snap: Snapshot{
				{Key: "request_id", Value: "r1"},
				{Key: "task", Value: "t1"},
				{Key: "attempt", Value: 3},
			},
			want: "[request_id=r1][task=t1][attempt=3]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.snap.Prefix())
		})
	}
}

func TestStack_DeepNesting(t *testing.T) {
	s := New()

	const depth = 64
	for i := range depth {
		s.Push(Int("level", i))
	}
	assert.Equal(t, depth, s.Depth())

	for i := depth - 1; i >= 0; i-- {
		val, ok := s.Snapshot().Get("level")
		require.True(t, ok)
		assert.Equal(t, i, val)
		s.Pop()
	}
	assert.Empty(t, s.Snapshot())
}

func BenchmarkPushPop(b *testing.B) {
	s := New()
	s.Push(String("request_id", "r1"), String("user", "u1"))

	b.ResetTimer()
	for range b.N {
		s.Push(String("task", "t1"))
		s.Pop()
	}
}

func BenchmarkSnapshot(b *testing.B) {
	s := New()
	for i := range 8 {
		s.Push(Int(fmt.Sprintf("k%d", i), i))
	}

	b.ResetTimer()
	for range b.N {
		_ = s.Snapshot()
	}
}
