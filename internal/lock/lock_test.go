package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLockerAcquireRelease(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "generation:user-1", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, release)

	_, err = locker.Acquire(ctx, "generation:user-1", time.Minute)
	assert.ErrorIs(t, err, ErrLocked)

	// A different key is independent.
	release2, err := locker.Acquire(ctx, "generation:user-2", time.Minute)
	require.NoError(t, err)
	release2()

	release()

	release3, err := locker.Acquire(ctx, "generation:user-1", time.Minute)
	require.NoError(t, err)
	release3()
}

func TestMemoryLockerExpiredLockIsFree(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	_, err := locker.Acquire(ctx, "generation:user-1", 10*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(25 * time.Millisecond)

	release, err := locker.Acquire(ctx, "generation:user-1", time.Minute)
	require.NoError(t, err)
	release()
}

func TestMemoryLockerReleaseIsIdempotent(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "generation:user-1", time.Minute)
	require.NoError(t, err)
	release()
	release()

	// A stale release must not free a lock taken by a newer holder.
	staleRelease, err := locker.Acquire(ctx, "generation:user-1", time.Minute)
	require.NoError(t, err)
	_ = staleRelease
	release()

	_, err = locker.Acquire(ctx, "generation:user-1", time.Minute)
	assert.ErrorIs(t, err, ErrLocked)
}
