package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestRateLimiterCapAndReset(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	limiter := NewRateLimiter(newClient(mr), 5, 20*time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ok, err := limiter.TryConsume(ctx, "stop-1")
		if err != nil || !ok {
			t.Fatalf("request %d: expected admission, got ok=%v err=%v", i+1, ok, err)
		}
		mr.FastForward(time.Minute)
	}

	ok, err := limiter.TryConsume(ctx, "stop-1")
	if err != nil {
		t.Fatalf("try consume: %v", err)
	}
	if ok {
		t.Fatalf("expected 6th request to be rejected")
	}
	if got, _ := mr.Get("edustop:stop-1:task_counter"); got != "5" {
		t.Fatalf("rejected request must not move the counter, got %s", got)
	}

	// 20 minutes after the first request the window is gone.
	mr.FastForward(15 * time.Minute)
	if ok, _ := limiter.TryConsume(ctx, "stop-1"); !ok {
		t.Fatalf("expected admission after window elapsed")
	}
}

func TestRateLimiterRelease(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	limiter := NewRateLimiter(newClient(mr), 1, time.Minute)
	ctx := context.Background()

	if ok, _ := limiter.TryConsume(ctx, "stop-1"); !ok {
		t.Fatalf("expected admission")
	}
	if err := limiter.Release(ctx, "stop-1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := limiter.TryConsume(ctx, "stop-1"); !ok {
		t.Fatalf("expected released slot to be reusable")
	}

	if err := limiter.Release(ctx, "never-used"); err != nil {
		t.Fatalf("release unknown: %v", err)
	}
	if mr.Exists("edustop:never-used:task_counter") {
		t.Fatalf("release must not create counters")
	}
}

func TestRateLimiterAdmitsExactlyLimitConcurrently(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	limiter := NewRateLimiter(newClient(mr), 5, time.Minute)
	ctx := context.Background()

	var admitted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := limiter.TryConsume(ctx, "stop-1"); err == nil && ok {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	if admitted.Load() != 5 {
		t.Fatalf("expected exactly 5 admissions, got %d", admitted.Load())
	}
}
