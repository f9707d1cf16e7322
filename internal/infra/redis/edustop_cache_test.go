package redis

import (
	"context"
	"testing"
	"time"

	"edustop-service/internal/domain"
	"edustop-service/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestEduStopCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{EduStopLoader: memory.NewStaticEduStops(sampleStop())}
	cache := NewEduStopCache(client, loader, time.Minute)

	stop, err := cache.GetEduStop(context.Background(), "stop-1")
	if err != nil {
		t.Fatalf("get stop: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("edustop:stop-1") {
		t.Fatalf("expected redis hash to be written")
	}

	// Second call should hit cache, loader not incremented.
	cached, err := cache.GetEduStop(context.Background(), "stop-1")
	if err != nil {
		t.Fatalf("get cached stop: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if cached != stop {
		t.Fatalf("cached stop %+v differs from loaded %+v", cached, stop)
	}

	if err := cache.Invalidate(context.Background(), "stop-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = cache.GetEduStop(context.Background(), "stop-1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.calls)
	}
}

func TestEduStopCacheExpiresWithTTL(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{EduStopLoader: memory.NewStaticEduStops(sampleStop())}
	cache := NewEduStopCache(newClient(mr), loader, time.Minute)

	_, _ = cache.GetEduStop(context.Background(), "stop-1")
	mr.FastForward(2 * time.Minute)
	_, _ = cache.GetEduStop(context.Background(), "stop-1")

	if loader.calls != 2 {
		t.Fatalf("expected reload after expiry, loader calls=%d", loader.calls)
	}
}

func TestEduStopCachePropagatesNotFound(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	cache := NewEduStopCache(newClient(mr), memory.NewStaticEduStops(), time.Minute)
	if _, err := cache.GetEduStop(context.Background(), "ghost"); err != domain.ErrTargetNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

type countingLoader struct {
	EduStopLoader
	calls int
}

func (l *countingLoader) GetEduStop(ctx context.Context, id string) (domain.EduStop, error) {
	l.calls++
	return l.EduStopLoader.GetEduStop(ctx, id)
}

func sampleStop() domain.EduStop {
	return domain.EduStop{ID: "stop-1", Name: "Rynek Glowny", Latitude: 50.061698, Longitude: 19.937206}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
