package runlock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"shelfsync/pkg/platform/sentinel"
)

// MemoryLocker is a process-local Locker for tests and single-instance
// deployments without Redis.
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock func() time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return NewMemoryLockerAt(time.Now)
}

// NewMemoryLockerAt injects the clock used for TTL expiry.
func NewMemoryLockerAt(clock func() time.Time) *MemoryLocker {
	return &MemoryLocker{held: make(map[string]time.Time), clock: clock}
}

func (l *MemoryLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (ReleaseFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if expiry, ok := l.held[name]; ok && expiry.After(now) {
		return nil, fmt.Errorf("lock %q: %w", name, sentinel.ErrLockHeld)
	}
	l.held[name] = now.Add(ttl)

	release := func(ctx context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, name)
		return nil
	}
	return release, nil
}
