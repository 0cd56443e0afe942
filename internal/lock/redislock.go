package lock

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Mutex provides a Redis-backed distributed lock with token-checked release.
type Mutex struct {
	R            *redis.Client
	TTL          time.Duration
	RetryBackoff time.Duration
}

// Handle represents a held lock.
type Handle struct {
	m     Mutex
	key   string
	token string
}

// Acquire blocks until the lock for key is held or ctx is cancelled.
func (m Mutex) Acquire(ctx context.Context, key string) (*Handle, error) {
	if m.R == nil {
		return nil, errors.New("lock: redis client not configured")
	}
	ttl := m.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	retry := m.RetryBackoff
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	token := uuid.NewString()

	for {
		ok, err := m.R.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return &Handle{m: m, key: key, token: token}, nil
		}
		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// Release drops the lock if it is still held by this handle. Releasing a
// lock that expired or was taken over is a no-op.
func (h *Handle) Release(ctx context.Context) {
	if h == nil {
		return
	}
	const script = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`
	if err := h.m.R.Eval(ctx, script, []string{h.key}, h.token).Err(); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unknown command") {
			_ = h.m.R.Del(ctx, h.key).Err()
		}
	}
}
