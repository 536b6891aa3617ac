package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisLimiter(t *testing.T, cfg Config) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter, err := NewRedisLimiter(client, cfg, "datadict:")
	require.NoError(t, err)
	t.Cleanup(func() { limiter.Close() })
	return limiter, mr
}

func TestNewRedisLimiter_InvalidConfig(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	tests := []struct {
		name    string
		client  *redis.Client
		cfg     Config
		wantErr string
	}{
		{"nil client", nil, Config{Requests: 1, Window: time.Second}, "redis client is required"},
		{"zero requests", client, Config{Window: time.Second}, "requests must be greater than 0"},
		{"tiny window", client, Config{Requests: 1, Window: time.Microsecond}, "window must be at least 1ms"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRedisLimiter(tt.client, tt.cfg, "")
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestRedisLimiter_Allow(t *testing.T) {
	limiter, mr := setupRedisLimiter(t, Config{Requests: 2, Window: time.Minute})
	ctx := context.Background()

	d, err := limiter.Allow(ctx, "client")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)

	d, err = limiter.Allow(ctx, "client")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Zero(t, d.Remaining)

	d, err = limiter.Allow(ctx, "client")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 2, d.Limit)

	assert.True(t, mr.Exists("datadict:ratelimit:client"))

	count, err := limiter.Count(ctx, "client")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRedisLimiter_SlidingWindow(t *testing.T) {
	limiter, _ := setupRedisLimiter(t, Config{Requests: 1, Window: time.Minute})
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	d, err := limiter.Allow(ctx, "client")
	require.NoError(t, err)
	require.True(t, d.Allowed)
	assert.Equal(t, now.Add(time.Minute).UnixMilli(), d.ResetAt.UnixMilli())

	now = now.Add(59 * time.Second)
	d, err = limiter.Allow(ctx, "client")
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	now = now.Add(2 * time.Second)
	d, err = limiter.Allow(ctx, "client")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRedisLimiter_Reset(t *testing.T) {
	limiter, _ := setupRedisLimiter(t, Config{Requests: 1, Window: time.Minute})
	ctx := context.Background()

	limiter.Allow(ctx, "client")
	require.NoError(t, limiter.Reset(ctx, "client"))

	count, err := limiter.Count(ctx, "client")
	require.NoError(t, err)
	assert.Zero(t, count)

	d, err := limiter.Allow(ctx, "client")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRedisLimiter_Concurrent(t *testing.T) {
	limiter, _ := setupRedisLimiter(t, Config{Requests: 10, Window: time.Minute})
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := limiter.Allow(ctx, "client")
			if err == nil && d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, allowed)
}

func TestRedisLimiter_Unavailable(t *testing.T) {
	limiter, mr := setupRedisLimiter(t, Config{Requests: 1, Window: time.Minute})
	mr.Close()

	_, err := limiter.Allow(context.Background(), "client")
	assert.ErrorContains(t, err, "redis rate limit check failed")
}
