package memory

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"edustop-service/internal/domain"
	"edustop-service/internal/geo"
	"golang.org/x/sync/singleflight"
)

// EduStopLoader fetches EduStops from a backing store.
type EduStopLoader interface {
	GetEduStop(ctx context.Context, id string) (domain.EduStop, error)
	SearchEduStops(ctx context.Context, center domain.Coordinate, radiusKm float64) ([]domain.EduStop, error)
}

// StaticEduStops is a loader backed by an in-memory map (useful for tests/demos).
type StaticEduStops struct {
	mu    sync.RWMutex
	stops map[string]domain.EduStop
}

func NewStaticEduStops(stops ...domain.EduStop) *StaticEduStops {
	m := make(map[string]domain.EduStop, len(stops))
	for _, s := range stops {
		m[s.ID] = s
	}
	return &StaticEduStops{stops: m}
}

// Put adds or replaces a stop.
func (l *StaticEduStops) Put(stop domain.EduStop) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stops[stop.ID] = stop
}

func (l *StaticEduStops) GetEduStop(_ context.Context, id string) (domain.EduStop, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if stop, ok := l.stops[id]; ok {
		return stop, nil
	}
	return domain.EduStop{}, domain.ErrTargetNotFound
}

func (l *StaticEduStops) SearchEduStops(_ context.Context, center domain.Coordinate, radiusKm float64) ([]domain.EduStop, error) {
	type hit struct {
		stop     domain.EduStop
		distance float64
	}
	limit := radiusKm * 1000

	l.mu.RLock()
	hits := make([]hit, 0, len(l.stops))
	for _, stop := range l.stops {
		if d := geo.Distance(center, stop.Position()); d <= limit {
			hits = append(hits, hit{stop: stop, distance: d})
		}
	}
	l.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].distance != hits[j].distance {
			return hits[i].distance < hits[j].distance
		}
		return hits[i].stop.ID < hits[j].stop.ID
	})
	out := make([]domain.EduStop, len(hits))
	for i, h := range hits {
		out[i] = h.stop
	}
	return out, nil
}

// EduStopCache caches stop lookups with TTL to avoid repeated DB hits.
// Searches always go to the loader.
type EduStopCache struct {
	loader EduStopLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedStop
}

type cachedStop struct {
	stop      domain.EduStop
	expiresAt time.Time
}

func NewEduStopCache(loader EduStopLoader, ttl time.Duration) *EduStopCache {
	return &EduStopCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedStop),
	}
}

func (c *EduStopCache) GetEduStop(ctx context.Context, id string) (domain.EduStop, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[id]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.stop, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[id]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.stop, nil
		}
		c.mu.RUnlock()

		stop, err := c.loader.GetEduStop(ctx, id)
		if err != nil {
			return domain.EduStop{}, err
		}

		c.mu.Lock()
		c.cache[id] = cachedStop{
			stop:      stop,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return stop, nil
	})
	if err != nil {
		return domain.EduStop{}, err
	}
	return result.(domain.EduStop), nil
}

func (c *EduStopCache) SearchEduStops(ctx context.Context, center domain.Coordinate, radiusKm float64) ([]domain.EduStop, error) {
	return c.loader.SearchEduStops(ctx, center, radiusKm)
}

func (c *EduStopCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
