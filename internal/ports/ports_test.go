package ports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glevine/backdropy/pkg/backdrop"
)

type mockChecker struct {
	name string
	err  error
}

func (m *mockChecker) Name() string { return m.name }

func (m *mockChecker) Check(ctx context.Context) error { return m.err }

func TestRegister_Success(t *testing.T) {
	registry := NewHealthRegistry()

	err := registry.Register(&mockChecker{name: "log-sink"})

	require.NoError(t, err)
	assert.Len(t, registry.checkers, 1)
}

func TestRegister_DuplicateName(t *testing.T) {
	registry := NewHealthRegistry()

	require.NoError(t, registry.Register(&mockChecker{name: "log-sink"}))

	err := registry.Register(&mockChecker{name: "log-sink"})

	require.ErrorIs(t, err, ErrDuplicateChecker)
	assert.Contains(t, err.Error(), "log-sink")
	assert.Len(t, registry.checkers, 1)
}

func TestCheckAll_NoCheckers(t *testing.T) {
	registry := NewHealthRegistry()

	result := registry.CheckAll(context.Background())

	require.NotNil(t, result)
	assert.Equal(t, HealthStatusHealthy, result.Status)
	assert.Empty(t, result.Checks)
	assert.False(t, result.Timestamp.IsZero())
}

func TestCheckAll_AllHealthy(t *testing.T) {
	registry := NewHealthRegistry()
	require.NoError(t, registry.Register(&mockChecker{name: "log-sink"}))
	require.NoError(t, registry.Register(&mockChecker{name: "runner"}))

	result := registry.CheckAll(context.Background())

	assert.Equal(t, HealthStatusHealthy, result.Status)
	require.Len(t, result.Checks, 2)
	assert.Equal(t, HealthStatusHealthy, result.Checks["log-sink"].Status)
	assert.Equal(t, HealthStatusHealthy, result.Checks["runner"].Status)
	assert.Empty(t, result.Checks["log-sink"].Message)
}

func TestCheckAll_OneUnhealthy(t *testing.T) {
	registry := NewHealthRegistry()
	require.NoError(t, registry.Register(&mockChecker{name: "log-sink"}))
	require.NoError(t, registry.Register(&mockChecker{name: "runner", err: errors.New("queue full")}))

	result := registry.CheckAll(context.Background())

	assert.Equal(t, HealthStatusUnhealthy, result.Status)
	require.Len(t, result.Checks, 2)
	assert.Equal(t, HealthStatusHealthy, result.Checks["log-sink"].Status)
	assert.Equal(t, HealthStatusUnhealthy, result.Checks["runner"].Status)
	assert.Equal(t, "queue full", result.Checks["runner"].Message)
}

type contextAwareChecker struct {
	name string
}

func (c *contextAwareChecker) Name() string { return c.name }

func (c *contextAwareChecker) Check(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

func TestCheckAll_ContextCancelled(t *testing.T) {
	registry := NewHealthRegistry()
	require.NoError(t, registry.Register(&contextAwareChecker{name: "slow"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := registry.CheckAll(ctx)

	assert.Equal(t, HealthStatusUnhealthy, result.Status)
	require.Len(t, result.Checks, 1)
	assert.Contains(t, result.Checks["slow"].Message, "context canceled")
}

type snapshotChecker struct {
	prefix string
}

func (c *snapshotChecker) Name() string { return "snapshot" }

func (c *snapshotChecker) Check(ctx context.Context) error {
	c.prefix = backdrop.SnapshotFrom(ctx).Prefix()
	return nil
}

func TestCheckAll_ChecksRunInOwnScope(t *testing.T) {
	registry := NewHealthRegistry()
	checker := &snapshotChecker{}
	require.NoError(t, registry.Register(checker))

	ctx, sc := backdrop.Enter(context.Background(), backdrop.String("request_id", "r1"))
	defer sc.Close()

	result := registry.CheckAll(ctx)

	assert.Equal(t, HealthStatusHealthy, result.Status)
	assert.Equal(t, "[check=snapshot]", checker.prefix)
	// The caller's stack is untouched by the sweep.
	assert.Equal(t, "[request_id=r1]", backdrop.SnapshotFrom(ctx).Prefix())
}
