package redis

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"edustop-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// EduStopLoader fetches EduStops from a backing store (e.g., Postgres).
type EduStopLoader interface {
	GetEduStop(ctx context.Context, id string) (domain.EduStop, error)
	SearchEduStops(ctx context.Context, center domain.Coordinate, radiusKm float64) ([]domain.EduStop, error)
}

// EduStopCache caches stops in Redis (hash per stop) and falls back to a loader on cache miss.
// Stops are stored as: HSET edustop:{id} name {name} latitude {lat} longitude {lon}
type EduStopCache struct {
	client *redis.Client
	loader EduStopLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewEduStopCache(client *redis.Client, loader EduStopLoader, ttl time.Duration) *EduStopCache {
	return &EduStopCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *EduStopCache) GetEduStop(ctx context.Context, id string) (domain.EduStop, error) {
	key := c.key(id)

	if stop, ok := c.fromCache(ctx, id, key); ok {
		return stop, nil
	}

	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if stop, ok := c.fromCache(ctx, id, key); ok {
			return stop, nil
		}

		stop, err := c.loader.GetEduStop(ctx, id)
		if err != nil {
			return domain.EduStop{}, err
		}

		ttl := c.ttlWithJitter()
		pipe := c.client.Pipeline()
		pipe.HSet(ctx, key,
			"name", stop.Name,
			"latitude", strconv.FormatFloat(stop.Latitude, 'f', -1, 64),
			"longitude", strconv.FormatFloat(stop.Longitude, 'f', -1, 64),
		)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return stop, nil
	})
	if err != nil {
		return domain.EduStop{}, err
	}
	return result.(domain.EduStop), nil
}

// SearchEduStops is not cached; radius queries rarely repeat exactly.
func (c *EduStopCache) SearchEduStops(ctx context.Context, center domain.Coordinate, radiusKm float64) ([]domain.EduStop, error) {
	return c.loader.SearchEduStops(ctx, center, radiusKm)
}

// Invalidate drops a cached stop.
func (c *EduStopCache) Invalidate(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return storageErr("invalidate edustop", err)
	}
	return nil
}

func (c *EduStopCache) fromCache(ctx context.Context, id, key string) (domain.EduStop, bool) {
	fields, err := c.client.HGetAll(ctx, key).Result()
	if err != nil || len(fields) == 0 {
		return domain.EduStop{}, false
	}
	lat, err := strconv.ParseFloat(fields["latitude"], 64)
	if err != nil {
		return domain.EduStop{}, false
	}
	lon, err := strconv.ParseFloat(fields["longitude"], 64)
	if err != nil {
		return domain.EduStop{}, false
	}
	return domain.EduStop{ID: id, Name: fields["name"], Latitude: lat, Longitude: lon}, true
}

func (c *EduStopCache) key(id string) string {
	return "edustop:" + id
}

func (c *EduStopCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
