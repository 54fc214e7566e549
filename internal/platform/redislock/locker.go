package redislock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/mastery-api/internal/platform/logger"
	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces lock keys in Redis.
const KeyPrefix = "mastery:lock:"

// releaseTimeout bounds the release script; it runs on a fresh context so a
// cancelled request still frees its lock.
const releaseTimeout = 2 * time.Second

// ErrLockNotAcquired is returned when the context ends before the lock is free.
var ErrLockNotAcquired = errors.New("lock not acquired")

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker hands out Redis-backed locks keyed by arbitrary strings.
type Locker struct {
	client        redis.Cmdable
	ttl           time.Duration
	retryInterval time.Duration
	logger        *slog.Logger
}

// NewLocker creates a Locker. ttl caps how long a crashed holder can block
// others; retryInterval is the pause between acquisition attempts.
func NewLocker(client redis.Cmdable, ttl, retryInterval time.Duration, logger *slog.Logger) *Locker {
	if client == nil {
		panic("redis client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Locker{
		client:        client,
		ttl:           ttl,
		retryInterval: retryInterval,
		logger:        logger.With(slog.String("component", "redis_locker")),
	}
}

// Lock blocks until the lock for key is held or ctx is done.
// The returned function releases the lock and is safe to call more than once.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	log := logger.FromContextOrDefault(ctx, l.logger)

	redisKey := KeyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrLockNotAcquired, key, ctx.Err())
			}
			log.Error("failed to acquire lock",
				slog.String("error", err.Error()),
				slog.String("lock_key", key))
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			log.Debug("lock acquired", slog.String("lock_key", key))
			return l.releaser(redisKey, token, key), nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %w", ErrLockNotAcquired, key, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *Locker) releaser(redisKey, token, key string) func() {
	var once sync.Once
	return func() {
		once.Do(func() { l.release(redisKey, token, key) })
	}
}

func (l *Locker) release(redisKey, token, key string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	n, err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Int64()
	if err != nil {
		l.logger.Error("failed to release lock",
			slog.String("error", err.Error()),
			slog.String("lock_key", key))
		return
	}
	if n == 0 {
		l.logger.Warn("lock expired before release", slog.String("lock_key", key))
	}
}
