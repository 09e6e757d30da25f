package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/flowscan/pkg/config"
)

const (
	defaultNamespace = "flowscan"
	connectTimeout   = 3 * time.Second
)

// Client is the shared Redis connection plus the key namespace of this
// deployment. A disabled client turns every cache and rate limit call into
// a no-op, so callers never branch on configuration.
// ⭐ SSOT: Redis 연결과 키 네임스페이스는 여기서만
type Client struct {
	rdb       *redis.Client
	enabled   bool
	namespace string
}

// Health is the result of one Ping round trip
type Health struct {
	Latency time.Duration
	Keys    int64 // DBSIZE
}

// New connects and pings once. The snapshot cache is optional, so a slow or
// absent Redis fails fast instead of stalling startup.
func New(cfg *config.Config) (*Client, error) {
	ns := strings.Trim(cfg.Redis.Namespace, ":")
	if ns == "" {
		ns = defaultNamespace
	}
	if !cfg.Redis.Enabled {
		return &Client{namespace: ns}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		DialTimeout: connectTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis %s: %w", rdb.Options().Addr, err)
	}

	return &Client{rdb: rdb, enabled: true, namespace: ns}, nil
}

// Close closes the connection; a disabled client has nothing to close
func (c *Client) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// Enabled reports whether Redis is in use
func (c *Client) Enabled() bool {
	return c != nil && c.enabled
}

// Key joins parts under the client namespace: "<ns>:<part>:<part>..."
func (c *Client) Key(parts ...string) string {
	ns := defaultNamespace
	if c != nil && c.namespace != "" {
		ns = c.namespace
	}
	return ns + ":" + strings.Join(parts, ":")
}

// Health pings Redis and reports round-trip latency and key count
func (c *Client) Health(ctx context.Context) (Health, error) {
	if !c.Enabled() {
		return Health{}, fmt.Errorf("redis disabled")
	}

	start := time.Now()
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return Health{}, fmt.Errorf("redis ping: %w", err)
	}
	h := Health{Latency: time.Since(start)}

	n, err := c.rdb.DBSize(ctx).Result()
	if err != nil {
		return h, fmt.Errorf("redis dbsize: %w", err)
	}
	h.Keys = n
	return h, nil
}

// Redis returns the underlying client for scripts and raw commands
func (c *Client) Redis() *redis.Client {
	return c.rdb
}
