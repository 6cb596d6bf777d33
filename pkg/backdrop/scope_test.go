package backdrop

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScope_PushesAndPops(t *testing.T) {
	s := New()

	sc := s.Scope(String("task", "t1"))
	assert.Equal(t, map[string]any{"task": "t1"}, snapshotMap(s.Snapshot()))

	sc.Close()
	assert.Empty(t, s.Snapshot())
}

func TestScope_CloseIsIdempotent(t *testing.T) {
	s := New()
	s.Push(String("request_id", "r1"))

	sc := s.Scope(String("task", "t1"))
	sc.Close()
	sc.Close() // second close must not pop the ancestor frame

	assert.Equal(t, map[string]any{"request_id": "r1"}, snapshotMap(s.Snapshot()))
}

func TestScope_AddExtendsOwnFrame(t *testing.T) {
	s := New()

	sc := s.Scope(String("task", "t1"))
	sc.Add(Int("attempt", 1))
	assert.Equal(t, map[string]any{"task": "t1", "attempt": 1}, snapshotMap(s.Snapshot()))

	sc.Close()
	assert.Empty(t, s.Snapshot())
}

func TestScope_AddAfterCloseIsNoOp(t *testing.T) {
	s := New()

	sc := s.Scope(String("task", "t1"))
	sc.Close()
	sc.Add(Int("attempt", 1))

	assert.Empty(t, s.Snapshot())
}

func TestScope_NestedLIFO(t *testing.T) {
	s := New()

	outer := s.Scope(String("request_id", "r1"))
	inner := s.Scope(String("task", "t1"))
	assert.Equal(t, map[string]any{"request_id": "r1", "task": "t1"}, snapshotMap(s.Snapshot()))

	inner.Close()
	assert.Equal(t, map[string]any{"request_id": "r1"}, snapshotMap(s.Snapshot()))

	outer.Close()
	assert.Empty(t, s.Snapshot())
}

func TestScope_ClosesOnPanic(t *testing.T) {
	s := New()
	s.Push(String("request_id", "r1"))

	run := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = errors.New("recovered")
			}
		}()

		sc := s.Scope(Int("x", 9))
		defer sc.Close()
		panic("boom")
	}

	err := run()
	require.Error(t, err)

	// The frame is gone by the time the panic reached the caller.
	_, ok := s.Snapshot().Get("x")
	assert.False(t, ok)
	assert.Equal(t, map[string]any{"request_id": "r1"}, snapshotMap(s.Snapshot()))
}

func TestContextualFunc_CleansUpOnError(t *testing.T) {
	s := New()

	failing := s.ContextualFunc(func() error {
		_, ok := s.Snapshot().Get("x")
		assert.True(t, ok)
		return errors.New("step failed")
	}, Int("x", 9))

	err := failing()
	require.EqualError(t, err, "step failed")

	_, ok := s.Snapshot().Get("x")
	assert.False(t, ok)
}

func TestContextualFunc_BindsAtWrapTime(t *testing.T) {
	s := New()

	value := "wrap-time"
	wrapped := s.ContextualFunc(func() error {
		v, _ := s.Snapshot().Get("bound")
		assert.Equal(t, "wrap-time", v)
		return nil
	}, String("bound", value))

	// Rebinding the local after wrapping must not affect invocations.
	value = "call-time"
	_ = value

	require.NoError(t, wrapped())
	require.NoError(t, wrapped())
	assert.Empty(t, s.Snapshot())
}
