package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindow admits a request when fewer than limit members have a score
// inside the window. Returns {allowed, remaining, retry_after_ms}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window_ms = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window_ms)
local count = redis.call('ZCARD', key)
if count < limit then
	redis.call('ZADD', key, now, ARGV[4])
	redis.call('PEXPIRE', key, window_ms)
	return {1, limit - count - 1, 0}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local retry = window_ms
if oldest[2] then
	retry = tonumber(oldest[2]) + window_ms - now
end
return {0, 0, retry}
`)

// RateLimiter is a sliding-window limiter shared by every process using
// the same Redis, e.g. several flowscan instances behind one KRX IP.
// ⭐ SSOT: 프로세스 간 공유 레이트 리밋은 여기서만
type RateLimiter struct {
	client *Client
}

// RateLimitConfig allows Limit requests per Window under Key
type RateLimitConfig struct {
	Key    string
	Limit  int
	Window time.Duration
}

// Decision is the outcome of one Allow call
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// NewRateLimiter creates a limiter whose keys live under the client namespace
func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow records one request if the window has room
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig) (Decision, error) {
	if !r.client.Enabled() || cfg.Limit <= 0 {
		return Decision{Allowed: true, Remaining: cfg.Limit}, nil
	}

	key := r.client.Key("ratelimit", cfg.Key)
	// 같은 ms에 들어온 요청도 서로 다른 member
	res, err := slidingWindow.Run(ctx, r.client.Redis(), []string{key},
		time.Now().UnixMilli(), cfg.Window.Milliseconds(), cfg.Limit, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", cfg.Key, err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("rate limit %s: unexpected reply %v", cfg.Key, res)
	}

	return Decision{
		Allowed:    res[0] == 1,
		Remaining:  int(res[1]),
		RetryAfter: time.Duration(res[2]) * time.Millisecond,
	}, nil
}

// Wait blocks until a request is admitted or ctx is done
func (r *RateLimiter) Wait(ctx context.Context, cfg RateLimitConfig) error {
	for {
		d, err := r.Allow(ctx, cfg)
		if err != nil {
			return err
		}
		if d.Allowed {
			return nil
		}

		timer := time.NewTimer(retryDelay(d.RetryAfter))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// retryDelay bounds the server hint to [10ms, 1s]
func retryDelay(hint time.Duration) time.Duration {
	switch {
	case hint < 10*time.Millisecond:
		return 10 * time.Millisecond
	case hint > time.Second:
		return time.Second
	default:
		return hint
	}
}
