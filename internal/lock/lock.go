// Package lock serializes work per key, such as path generation for one
// session. RedisLocker shares locks across instances; LocalLocker covers
// single-instance deployments and tests.
package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLocked is returned when another holder owns the key.
var ErrLocked = errors.New("lock is held")

// Locker acquires a key for at most ttl. The returned release func is
// safe to call more than once.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

const redisKeyPrefix = "treasurehunt:lock:"

// releaseScript deletes the key only if it still holds our token, so an
// expired lock taken over by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisLocker logs failed releases to logger; such a lock stays held
// until its ttl runs out.
func NewRedisLocker(client *redis.Client, logger *slog.Logger) *RedisLocker {
	return &RedisLocker{client: client, logger: logger}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, redisKeyPrefix+key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}

	return l.releaseFunc(key, token, ttl), nil
}

func (l *RedisLocker) releaseFunc(key, token string, ttl time.Duration) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			if err := l.release(key, token); err != nil {
				l.logger.Error("releasing lock", "key", key, "ttl", ttl, "error", err)
			}
		})
	}
}

func (l *RedisLocker) release(key, token string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, l.client, []string{redisKeyPrefix + key}, token).Err(); err != nil {
		return fmt.Errorf("releasing %s: %w", key, err)
	}
	return nil
}

type LocalLocker struct {
	mu    sync.Mutex
	seq   uint64
	held  map[string]localEntry
	clock func() time.Time
}

type localEntry struct {
	token   uint64
	expires time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{
		held:  make(map[string]localEntry),
		clock: time.Now,
	}
}

func (l *LocalLocker) Acquire(_ context.Context, key string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if e, ok := l.held[key]; ok && now.Before(e.expires) {
		return nil, ErrLocked
	}

	l.seq++
	token := l.seq
	l.held[key] = localEntry{token: token, expires: now.Add(ttl)}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if e, ok := l.held[key]; ok && e.token == token {
				delete(l.held, key)
			}
		})
	}, nil
}

var (
	_ Locker = (*RedisLocker)(nil)
	_ Locker = (*LocalLocker)(nil)
)
