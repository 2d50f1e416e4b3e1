package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockManager(t *testing.T) {
	mgr := NewLocalLockManager()
	ctx := context.Background()

	require.NoError(t, mgr.Acquire(ctx, 1))

	ok, err := mgr.TryAcquire(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = mgr.TryAcquire(ctx, 2)
	require.NoError(t, err)
	assert.True(t, ok, "different lock ids are independent")

	timeout, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.Error(t, mgr.Acquire(timeout, 1))

	require.NoError(t, mgr.Release(ctx, 1))
	assert.ErrorContains(t, mgr.Release(ctx, 1), "not held")
}
