package donations

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	statsCacheKey    = "campusgive:stats"
	statsLoadTimeout = 10 * time.Second
)

// CacheObserver is told about every cache lookup.
type CacheObserver interface {
	CacheLookup(cache string, hit bool)
}

// StatsCache keeps the marketplace summary in Redis for a short TTL.
// Concurrent misses share a single load.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group

	observer CacheObserver
}

// NewStatsCache instantiates the cache helper. A nil client disables caching
// but still collapses concurrent loads.
func NewStatsCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *StatsCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsCache{client: client, ttl: ttl, logger: logger}
}

// Observe registers o to receive hit/miss notifications.
func (c *StatsCache) Observe(o CacheObserver) {
	c.observer = o
}

func (c *StatsCache) record(hit bool) {
	if c.observer != nil {
		c.observer.CacheLookup("stats", hit)
	}
}

// Fetch returns cached stats or populates the cache using load.
func (c *StatsCache) Fetch(ctx context.Context, load func(context.Context) (Stats, error)) (Stats, error) {
	if c.client != nil {
		raw, err := c.client.Get(ctx, statsCacheKey).Bytes()
		switch {
		case err == nil:
			var cached Stats
			if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
				c.record(true)
				return cached, nil
			}
		case !errors.Is(err, redis.Nil):
			c.logger.Warn("stats cache read", slog.Any("error", err))
		}
	}

	c.record(false)

	// The load is shared, so it must outlive any single caller.
	ch := c.group.DoChan(statsCacheKey, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statsLoadTimeout)
		defer cancel()
		stats, err := load(loadCtx)
		if err != nil {
			return Stats{}, err
		}
		c.store(loadCtx, stats)
		return stats, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return Stats{}, res.Err
		}
		return res.Val.(Stats), nil
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
}

// Invalidate drops the cached summary after a write.
func (c *StatsCache) Invalidate(ctx context.Context) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, statsCacheKey).Err(); err != nil {
		c.logger.Warn("stats cache invalidate", slog.Any("error", err))
	}
}

func (c *StatsCache) store(ctx context.Context, stats Stats) {
	if c.client == nil || c.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, statsCacheKey, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("stats cache write", slog.Any("error", err))
	}
}
