package lock

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestLocalLocker(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLocker()

	release, err := l.Acquire(ctx, "paths:s1", time.Minute)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	if _, err := l.Acquire(ctx, "paths:s1", time.Minute); !errors.Is(err, ErrLocked) {
		t.Fatalf("second acquire: err = %v, want ErrLocked", err)
	}

	other, err := l.Acquire(ctx, "paths:s2", time.Minute)
	if err != nil {
		t.Fatalf("other key: %v", err)
	}
	defer other()

	release()
	release()

	again, err := l.Acquire(ctx, "paths:s1", time.Minute)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	again()
}

func TestLocalLockerExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewLocalLocker()
	l.clock = func() time.Time { return now }

	stale, err := l.Acquire(ctx, "k", 30*time.Second)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	now = now.Add(31 * time.Second)
	fresh, err := l.Acquire(ctx, "k", 30*time.Second)
	if err != nil {
		t.Fatalf("acquire after expiry: %v", err)
	}

	// Releasing the expired holder must not drop the new one.
	stale()
	if _, err := l.Acquire(ctx, "k", 30*time.Second); !errors.Is(err, ErrLocked) {
		t.Fatalf("err = %v, want ErrLocked", err)
	}
	fresh()
}

func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr:         "localhost:1",
		DialTimeout:  10 * time.Millisecond,
		ReadTimeout:  10 * time.Millisecond,
		WriteTimeout: 10 * time.Millisecond,
		MaxRetries:   -1,
	})
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestRedisLockerUnreachable(t *testing.T) {
	rdb := unreachableRedis(t)

	_, err := NewRedisLocker(rdb, slog.Default()).Acquire(context.Background(), "k", time.Second)
	if err == nil || errors.Is(err, ErrLocked) {
		t.Fatalf("err = %v, want connection error", err)
	}
}

func TestRedisLockerReleaseFailureLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	l := NewRedisLocker(unreachableRedis(t), logger)

	if err := l.release("paths:s1", "token"); err == nil || !strings.Contains(err.Error(), "paths:s1") {
		t.Fatalf("release err = %v, want error naming the key", err)
	}

	release := l.releaseFunc("paths:s1", "token", time.Minute)
	release()
	release()

	out := buf.String()
	if strings.Count(out, "releasing lock") != 1 || !strings.Contains(out, "key=paths:s1") {
		t.Errorf("log output = %q, want one release failure for paths:s1", out)
	}
}
