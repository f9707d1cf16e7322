package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// tryConsumeScript increments the counter, starts the window on the first
// hit and rolls the increment back when the cap is exceeded.
var tryConsumeScript = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 or redis.call('PTTL', KEYS[1]) < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
if current > tonumber(ARGV[1]) then
  redis.call('DECR', KEYS[1])
  return 0
end
return 1
`)

var releaseScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current > 0 then
  return redis.call('DECR', KEYS[1])
end
return 0
`)

// RateLimiter is a fixed-window counter per EduStop stored at
// edustop:{id}:task_counter. Check and increment run as one script.
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, limit: limit, window: window}
}

func (l *RateLimiter) TryConsume(ctx context.Context, key string) (bool, error) {
	admitted, err := tryConsumeScript.Run(ctx, l.client, []string{l.key(key)}, l.limit, l.window.Milliseconds()).Int()
	if err != nil {
		return false, storageErr("rate limit", err)
	}
	return admitted == 1, nil
}

func (l *RateLimiter) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key(key)}).Err(); err != nil {
		return storageErr("release rate limit", err)
	}
	return nil
}

func (l *RateLimiter) key(eduStopID string) string {
	return "edustop:" + eduStopID + ":task_counter"
}
