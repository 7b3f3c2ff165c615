package runlock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"shelfsync/pkg/platform/sentinel"
)

// releaseScript deletes the lock only if this process still owns it, so a
// slow run whose lock expired cannot release a successor's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with a SET NX PX advisory lock, the
// cross-instance guard when more than one reconciler can be deployed.
type RedisLocker struct {
	client redis.Cmdable
}

func NewRedisLocker(client redis.Cmdable) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (ReleaseFunc, error) {
	key := "shelfsync:lock:" + name
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %q: %w", name, err)
	}
	if !ok {
		return nil, fmt.Errorf("lock %q: %w", name, sentinel.ErrLockHeld)
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
			return fmt.Errorf("release lock %q: %w", name, err)
		}
		return nil
	}
	return release, nil
}
