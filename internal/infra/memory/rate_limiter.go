package memory

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a fixed-window counter per key. The window starts with the
// first request and the counter disappears when it ends.
type RateLimiter struct {
	limit  int
	window time.Duration
	clock  func() time.Time

	mu       sync.Mutex
	counters map[string]*windowCounter
}

type windowCounter struct {
	count     int
	expiresAt time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return NewRateLimiterWithClock(limit, window, time.Now)
}

// NewRateLimiterWithClock is test-only for deterministic windows.
func NewRateLimiterWithClock(limit int, window time.Duration, clock func() time.Time) *RateLimiter {
	return &RateLimiter{
		limit:    limit,
		window:   window,
		clock:    clock,
		counters: make(map[string]*windowCounter),
	}
}

func (l *RateLimiter) TryConsume(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	c, ok := l.counters[key]
	if !ok || !c.expiresAt.After(now) {
		c = &windowCounter{expiresAt: now.Add(l.window)}
		l.counters[key] = c
	}
	if c.count >= l.limit {
		return false, nil
	}
	c.count++
	return true, nil
}

func (l *RateLimiter) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.counters[key]; ok && c.count > 0 && c.expiresAt.After(l.clock()) {
		c.count--
	}
	return nil
}

// Count returns the current window's counter for key.
func (l *RateLimiter) Count(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.counters[key]; ok && c.expiresAt.After(l.clock()) {
		return c.count
	}
	return 0
}
