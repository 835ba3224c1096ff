package ratelimit

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// windowScript counts requests in a fixed window and refuses once the burst
// size is reached. It returns {allowed, seconds until the window resets}.
var windowScript = redis.NewScript(`
	local key = KEYS[1]
	local burst_size = tonumber(ARGV[1])
	local window_size = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])

	local count = tonumber(redis.call('HGET', key, 'count')) or 0
	local window_start = tonumber(redis.call('HGET', key, 'window_start')) or now

	if now - window_start >= window_size then
		count = 0
		window_start = now
	end

	local allowed = count < burst_size
	if allowed then
		count = count + 1
	end

	local reset_time = 0
	if not allowed then
		reset_time = math.ceil(((window_start + window_size) - now) / 1000)
	end

	redis.call('HSET', key, 'count', count, 'window_start', window_start)
	redis.call('PEXPIRE', key, window_size + 1000)

	return {allowed and 1 or 0, reset_time}
`)

// RedisRateLimiter shares request windows between API instances through Redis.
type RedisRateLimiter struct {
	client  redis.UniversalClient
	config  *Config
	total   atomic.Int64
	blocked atomic.Int64
	now     func() time.Time
}

// NewRedisRateLimiter creates a new Redis-backed rate limiter
func NewRedisRateLimiter(client redis.UniversalClient, config *Config) *RedisRateLimiter {
	if config == nil {
		config = DefaultConfig()
	}
	return &RedisRateLimiter{
		client: client,
		config: config,
		now:    time.Now,
	}
}

func (r *RedisRateLimiter) Allow(ctx context.Context, clientID, category string) (bool, time.Duration, error) {
	if !r.config.Enabled {
		return true, 0, nil
	}
	r.total.Add(1)

	limit := r.config.LimitFor(category)
	key := fmt.Sprintf("%s%s:%s", r.config.RedisKeyPrefix, clientID, category)

	res, err := windowScript.Run(ctx, r.client, []string{key},
		limit.BurstSize,
		limit.WindowSize.Milliseconds(),
		r.now().UnixMilli(),
	).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit check failed: %w", err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("unexpected script result %v", res)
	}

	if res[0] != 1 {
		r.blocked.Add(1)
		return false, time.Duration(res[1]) * time.Second, nil
	}
	return true, 0, nil
}

func (r *RedisRateLimiter) Limit(category string) RateLimit {
	return r.config.LimitFor(category)
}

// GetStats reports this instance's counters. ActiveClients counts live window keys.
func (r *RedisRateLimiter) GetStats() RateLimiterStats {
	stats := RateLimiterStats{
		TotalRequests:   r.total.Load(),
		BlockedRequests: r.blocked.Load(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	iter := r.client.Scan(ctx, 0, r.config.RedisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		stats.ActiveClients++
	}
	return stats
}

// Close is a no-op; the Redis client is owned by the caller.
func (r *RedisRateLimiter) Close() error { return nil }
