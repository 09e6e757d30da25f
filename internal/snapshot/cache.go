package snapshot

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/wonny/flowscan/internal/contracts"
	"github.com/wonny/flowscan/pkg/logger"
	"github.com/wonny/flowscan/pkg/metrics"
	"github.com/wonny/flowscan/pkg/redis"
)

// Cache stores snapshots keyed by (date, market) until their TTL expires
type Cache interface {
	Get(ctx context.Context, key string) (*contracts.DaySnapshot, bool)
	Set(ctx context.Context, key string, snap *contracts.DaySnapshot, ttl time.Duration)
}

// PartialTTL caps the lifetime of a snapshot that lacks streak-only classes
const PartialTTL = 5 * time.Minute

// Key returns the cache key of a (date, market) snapshot
func Key(date time.Time, market contracts.Market) string {
	return redis.SnapshotKey(string(market), date.Format("20060102"))
}

// Cached is a read-through cache in front of a snapshot source.
// Only complete snapshots are stored, so a degraded fetch is retried next run.
type Cached struct {
	source  contracts.SnapshotSource
	cache   Cache
	ttl     time.Duration
	metrics *metrics.Recorder
	logger  *logger.Logger
}

// NewCached wraps source with cache
func NewCached(source contracts.SnapshotSource, cache Cache, ttl time.Duration, rec *metrics.Recorder, log *logger.Logger) *Cached {
	return &Cached{
		source:  source,
		cache:   cache,
		ttl:     ttl,
		metrics: rec,
		logger:  log,
	}
}

// Load implements contracts.SnapshotSource
func (c *Cached) Load(ctx context.Context, date time.Time, market contracts.Market) (*contracts.DaySnapshot, error) {
	key := Key(contracts.DateOf(date), market)

	if snap, ok := c.cache.Get(ctx, key); ok {
		c.metrics.RecordCacheLookup(true)
		return snap, nil
	}
	c.metrics.RecordCacheLookup(false)

	snap, err := c.source.Load(ctx, date, market)
	if err != nil {
		return nil, err
	}

	if ttl := c.ttlFor(snap); ttl > 0 {
		c.cache.Set(ctx, key, snap, ttl)
	} else {
		c.logger.WithField("key", key).Debug("Incomplete snapshot not cached")
	}
	return snap, nil
}

// ttlFor returns how long snap may be cached; zero means not at all.
// A day missing only streak-report classes serves screens unchanged, so it
// is kept briefly and the missing slice is retried soon after.
func (c *Cached) ttlFor(snap *contracts.DaySnapshot) time.Duration {
	switch {
	case snap.Complete():
		return c.ttl
	case snap.CompleteFor(contracts.ScreenClasses):
		return min(c.ttl, PartialTTL)
	default:
		return 0
	}
}

// RedisCache stores snapshots as JSON in Redis
type RedisCache struct {
	cache  *redis.Cache
	logger *logger.Logger
}

// NewRedisCache creates a Redis-backed snapshot cache
func NewRedisCache(client *redis.Client, log *logger.Logger) *RedisCache {
	return &RedisCache{
		cache:  redis.NewCache(client),
		logger: log,
	}
}

// Get implements Cache. Redis errors read as a miss.
func (r *RedisCache) Get(ctx context.Context, key string) (*contracts.DaySnapshot, bool) {
	var snap contracts.DaySnapshot
	ok, err := r.cache.Get(ctx, key, &snap)
	if err != nil {
		r.logger.WithError(err).WithField("key", key).Warn("Snapshot cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return &snap, true
}

// Set implements Cache. Write failures are logged only.
func (r *RedisCache) Set(ctx context.Context, key string, snap *contracts.DaySnapshot, ttl time.Duration) {
	if err := r.cache.Set(ctx, key, snap, ttl); err != nil {
		r.logger.WithError(err).WithField("key", key).Warn("Snapshot cache write failed")
	}
}

// MemoryCache is an in-process TTL cache used when Redis is disabled
type MemoryCache struct {
	cache *ristretto.Cache[string, *contracts.DaySnapshot]
}

// NewMemoryCache creates an in-process cache holding up to maxEntries snapshots
func NewMemoryCache(maxEntries int64) (*MemoryCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, *contracts.DaySnapshot]{
		NumCounters:        maxEntries * 10,
		MaxCost:            maxEntries,
		BufferItems:        64,
		IgnoreInternalCost: true, // 비용 = 스냅샷 개수
	})
	if err != nil {
		return nil, err
	}
	return &MemoryCache{cache: c}, nil
}

// Get implements Cache
func (m *MemoryCache) Get(_ context.Context, key string) (*contracts.DaySnapshot, bool) {
	return m.cache.Get(key)
}

// Set implements Cache; each snapshot costs one entry
func (m *MemoryCache) Set(_ context.Context, key string, snap *contracts.DaySnapshot, ttl time.Duration) {
	m.cache.SetWithTTL(key, snap, 1, ttl)
	m.cache.Wait()
}

// Close stops the cache's background goroutines
func (m *MemoryCache) Close() {
	m.cache.Close()
}
