package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemoryCache(t *testing.T, config Config) *MemoryCache {
	t.Helper()
	cache := NewMemoryCache(config)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestMemoryCache_SetAndGet(t *testing.T) {
	cache := newTestMemoryCache(t, DefaultConfig())
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "roots", []byte("page 1"), time.Minute))

	got, err := cache.Get(ctx, "roots")
	require.NoError(t, err)
	assert.Equal(t, []byte("page 1"), got)

	_, err = cache.Get(ctx, "fields")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryCache_Expiration(t *testing.T) {
	cache := newTestMemoryCache(t, DefaultConfig())
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.Set(ctx, "short", []byte("x"), time.Second))
	require.NoError(t, cache.Set(ctx, "default", []byte("y"), 0))

	now = now.Add(2 * time.Second)
	_, err := cache.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrMiss)

	_, err = cache.Get(ctx, "default")
	assert.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = cache.Get(ctx, "default")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryCache_MaxEntries(t *testing.T) {
	cache := newTestMemoryCache(t, Config{DefaultTTL: time.Minute, MaxEntries: 2})
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.Set(ctx, "a", []byte("1"), time.Second))
	require.NoError(t, cache.Set(ctx, "b", []byte("2"), time.Hour))
	require.NoError(t, cache.Set(ctx, "c", []byte("3"), time.Hour))

	assert.Equal(t, 2, cache.Len())
	_, err := cache.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss, "the entry closest to expiry is evicted")

	// overwriting an existing key never evicts
	require.NoError(t, cache.Set(ctx, "b", []byte("4"), time.Hour))
	assert.Equal(t, 2, cache.Len())
}

func TestMemoryCache_Clear(t *testing.T) {
	cache := newTestMemoryCache(t, DefaultConfig())
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, cache.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, cache.Clear(ctx))
	assert.Zero(t, cache.Len())
}

func TestMemoryCache_CancelledContext(t *testing.T) {
	cache := newTestMemoryCache(t, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, cache.Set(ctx, "a", nil, 0), context.Canceled)
	_, err := cache.Get(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, cache.Clear(ctx), context.Canceled)
}
