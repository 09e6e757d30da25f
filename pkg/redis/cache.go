package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTLMaster is the lifetime of master data such as ticker names
const TTLMaster = 24 * time.Hour

// Cache stores JSON values under "<namespace>:cache:<key>"
// ⭐ SSOT: 캐시 키 규칙은 여기서만
type Cache struct {
	client *Client
}

// NewCache creates a cache helper; a disabled client makes it a no-op
func NewCache(client *Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) key(k string) string {
	return c.client.Key("cache", k)
}

// Get decodes the value at key into dest. A missing key is (false, nil).
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

// Set stores value at key for ttl
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.client.Redis().Set(ctx, c.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// GetOrSet reads key into dest, or fills dest from fn and stores it.
// Cache read/write failures fall through to fn; fn's error is returned as is.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	var v T
	if ok, err := c.Get(ctx, key, &v); err == nil && ok {
		return v, nil
	}

	v, err := fn()
	if err != nil {
		return v, err
	}
	_ = c.Set(ctx, key, v, ttl)
	return v, nil
}

// SnapshotKey identifies one (market, YYYYMMDD) day snapshot
func SnapshotKey(market string, date string) string {
	return fmt.Sprintf("snapshot:%s:%s", market, date)
}

// TickerNameKey identifies a cached ticker display name
func TickerNameKey(ticker string) string {
	return fmt.Sprintf("ticker:name:%s", ticker)
}
