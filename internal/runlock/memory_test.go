package runlock_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"shelfsync/internal/runlock"
	"shelfsync/pkg/platform/sentinel"
)

func TestMemoryLockerSingleHolder(t *testing.T) {
	ctx := context.Background()
	locker := runlock.NewMemoryLocker()

	release, err := locker.Acquire(ctx, "reconcile", time.Minute)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "reconcile", time.Minute)
	require.ErrorIs(t, err, sentinel.ErrLockHeld)

	require.NoError(t, release(ctx))

	release, err = locker.Acquire(ctx, "reconcile", time.Minute)
	require.NoError(t, err)
	require.NoError(t, release(ctx))
}

func TestMemoryLockerNamesAreIndependent(t *testing.T) {
	ctx := context.Background()
	locker := runlock.NewMemoryLocker()

	releaseA, err := locker.Acquire(ctx, "reconcile", time.Minute)
	require.NoError(t, err)
	defer releaseA(ctx)

	releaseB, err := locker.Acquire(ctx, "import", time.Minute)
	require.NoError(t, err)
	require.NoError(t, releaseB(ctx))
}

func TestMemoryLockerExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	locker := runlock.NewMemoryLockerAt(func() time.Time { return now })

	_, err := locker.Acquire(ctx, "reconcile", time.Minute)
	require.NoError(t, err)

	// A crashed holder never releases; the TTL is the recovery path.
	now = now.Add(61 * time.Second)
	release, err := locker.Acquire(ctx, "reconcile", time.Minute)
	require.NoError(t, err)
	require.NoError(t, release(ctx))
}
