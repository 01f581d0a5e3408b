package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"facilitydesk/config"
	"facilitydesk/shared"
	"facilitydesk/shared/cache"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const cacheKeyLock = "lock"

// ErrLocked is returned when another request already holds the key.
var ErrLocked = errors.New("resource is locked by another request")

// Release gives the lock back. It is safe to call more than once.
type Release func()

type Locker interface {
	Acquire(ctx context.Context, key string) (Release, error)
}

// New picks the redis backed locker when the cache is enabled so that every
// replica sees the same locks, and an in-process one otherwise.
func New(config *config.Config, c cache.RedisCache) Locker {
	if c != nil && c.Enabled() {
		return NewRedis(c, config.Cache.LockTTLSeconds)
	}

	return NewLocal()
}

type redisLocker struct {
	cache cache.RedisCache
	ttl   int
}

func NewRedis(c cache.RedisCache, ttlSeconds int) Locker {
	return &redisLocker{cache: c, ttl: ttlSeconds}
}

func (l *redisLocker) Acquire(ctx context.Context, key string) (Release, error) {
	cacheKey := shared.BuildCacheKey(cacheKeyLock, key)
	token := uuid.NewString()

	saved, err := l.cache.SaveIfAbsent(ctx, cacheKey, token, l.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}

	if !saved {
		return nil, ErrLocked
	}

	var once sync.Once

	return func() {
		once.Do(func() {
			// The request context may already be cancelled at this point.
			if _, err := l.cache.CompareAndDelete(context.WithoutCancel(ctx), cacheKey, token); err != nil {
				log.Warn().Err(err).Str("key", cacheKey).Msg("failed to release lock, it will expire on its own")
			}
		})
	}, nil
}

type localLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocal() Locker {
	return &localLocker{held: make(map[string]struct{})}
}

func (l *localLocker) Acquire(_ context.Context, key string) (Release, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return nil, ErrLocked
	}

	l.held[key] = struct{}{}

	var once sync.Once

	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}
