package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// acquireScript counts calls in a fixed window keyed by scope. The first
// call opens the window with a PEXPIRE; calls past the limit are rejected
// with the window's remaining millis. INCR plus PEXPIRE in one script keeps
// the check atomic across processes.
var acquireScript = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  local ttl = redis.call('PTTL', KEYS[1])
  if ttl < 0 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
    ttl = tonumber(ARGV[1])
  end
  return ttl
end
return 0
`)

// RedisLimiter enforces one shared ceiling across every process that talks
// to the same Redis and scope key.
type RedisLimiter struct {
	rdb    *redis.Client
	key    string
	limit  int
	window time.Duration
	logger *slog.Logger
}

func NewRedisLimiter(rdb *redis.Client, scope string, limit int, window time.Duration, logger *slog.Logger) *RedisLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLimiter{
		rdb:    rdb,
		key:    "ratelimit:" + scope,
		limit:  limit,
		window: window,
		logger: logger,
	}
}

func (l *RedisLimiter) Acquire(ctx context.Context) (time.Duration, error) {
	ms, err := acquireScript.Run(ctx, l.rdb, []string{l.key},
		l.window.Milliseconds(), l.limit).Int64()
	if err != nil {
		return 0, fmt.Errorf("rate limiter unavailable: %w", err)
	}
	if ms <= 0 {
		return 0, nil
	}
	wait := time.Duration(ms) * time.Millisecond
	l.logger.Debug("ratelimit.wait", "scope", l.key, "wait_ms", ms)
	return wait, nil
}
