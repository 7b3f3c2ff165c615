// Package runlock enforces the single-writer contract for batch runs: at
// most one reconciliation may be in flight per checkpoint. Two concurrent
// runs could both observe the same pre-batch checkpoint and double-apply
// events, so a trigger that finds the lock held is refused, never queued
// behind a live run.
package runlock

import (
	"context"
	"time"
)

// ReleaseFunc frees a held lock. Safe to call once; releasing a lock that
// expired or was taken over is a no-op.
type ReleaseFunc func(ctx context.Context) error

// Locker acquires the named advisory lock. When the lock is already held,
// Acquire returns sentinel.ErrLockHeld (possibly wrapped) without blocking.
// The TTL bounds how long a crashed run can wedge the pipeline.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (ReleaseFunc, error)
}
