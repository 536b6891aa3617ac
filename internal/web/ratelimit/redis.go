package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindow trims the key to the current window, then records the request
// when it fits. Returns {allowed, count, oldest score}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
local current = redis.call('ZCARD', key)
local allowed = 0
if current < limit then
	redis.call('ZADD', key, now, ARGV[4])
	current = current + 1
	allowed = 1
end
redis.call('PEXPIRE', key, window)

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local first = now
if oldest[2] then
	first = tonumber(oldest[2])
end
return {allowed, current, first}
`)

// RedisLimiter is a sliding-window limiter shared by every instance pointed
// at the same Redis
type RedisLimiter struct {
	client *redis.Client
	config Config
	prefix string
	now    func() time.Time
}

// NewRedisLimiter wraps client. Keys are stored as prefix + "ratelimit:" + key.
func NewRedisLimiter(client *redis.Client, cfg Config, prefix string) (*RedisLimiter, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if cfg.Requests <= 0 {
		return nil, errors.New("requests must be greater than 0")
	}
	if cfg.Window < time.Millisecond {
		return nil, errors.New("window must be at least 1ms")
	}
	return &RedisLimiter{client: client, config: cfg, prefix: prefix + "ratelimit:", now: time.Now}, nil
}

// Allow records one request for key when the window has room
func (r *RedisLimiter) Allow(ctx context.Context, key string) (*Decision, error) {
	now := r.now().UnixMilli()
	window := r.config.Window.Milliseconds()

	res, err := slidingWindow.Run(ctx, r.client, []string{r.prefix + key},
		now, window, r.config.Requests, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("redis rate limit check failed: %w", err)
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("unexpected rate limit script result: %v", res)
	}

	return &Decision{
		Allowed:   res[0] == 1,
		Limit:     r.config.Requests,
		Remaining: max(r.config.Requests-int(res[1]), 0),
		ResetAt:   time.UnixMilli(res[2] + window),
	}, nil
}

// Count returns how many requests key has in the current window
func (r *RedisLimiter) Count(ctx context.Context, key string) (int, error) {
	redisKey := r.prefix + key
	floor := r.now().UnixMilli() - r.config.Window.Milliseconds()

	pipe := r.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprint(floor))
	card := pipe.ZCard(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to count requests: %w", err)
	}
	return int(card.Val()), nil
}

// Reset forgets every request recorded for key
func (r *RedisLimiter) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}

// Close closes the Redis client
func (r *RedisLimiter) Close() error {
	return r.client.Close()
}
