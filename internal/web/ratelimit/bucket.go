package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// TokenBucket is an in-memory limiter. Each key holds up to Requests tokens,
// refilled evenly over Window.
type TokenBucket struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	config  Config
	now     func() time.Time

	cleanup *time.Ticker
	done    chan struct{}
	once    sync.Once
}

type bucket struct {
	tokens     int
	lastRefill time.Time
}

// NewTokenBucket creates the limiter and starts evicting idle buckets
func NewTokenBucket(cfg Config) (*TokenBucket, error) {
	if cfg.Requests <= 0 {
		return nil, errors.New("requests must be greater than 0")
	}
	if cfg.Window <= 0 {
		return nil, errors.New("window must be greater than 0")
	}

	tb := &TokenBucket{
		buckets: make(map[string]*bucket),
		config:  cfg,
		now:     time.Now,
		cleanup: time.NewTicker(2 * cfg.Window),
		done:    make(chan struct{}),
	}
	go tb.cleanupLoop()
	return tb, nil
}

// Allow takes one token for key
func (tb *TokenBucket) Allow(_ context.Context, key string) (*Decision, error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	limit := tb.config.Requests

	b, ok := tb.buckets[key]
	if !ok {
		b = &bucket{tokens: limit, lastRefill: now}
		tb.buckets[key] = b
	}

	if elapsed := now.Sub(b.lastRefill); elapsed > 0 {
		refill := int(float64(limit) * elapsed.Seconds() / tb.config.Window.Seconds())
		if refill > 0 {
			b.tokens = min(limit, b.tokens+refill)
			b.lastRefill = now
		}
	}

	d := &Decision{Limit: limit, ResetAt: b.lastRefill.Add(tb.config.Window)}
	if b.tokens > 0 {
		b.tokens--
		d.Allowed = true
	}
	d.Remaining = b.tokens
	return d, nil
}

func (tb *TokenBucket) cleanupLoop() {
	for {
		select {
		case <-tb.cleanup.C:
			tb.evictIdle()
		case <-tb.done:
			return
		}
	}
}

// evictIdle drops buckets untouched for two windows; they would be full anyway
func (tb *TokenBucket) evictIdle() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	threshold := 2 * tb.config.Window
	now := tb.now()
	for key, b := range tb.buckets {
		if now.Sub(b.lastRefill) > threshold {
			delete(tb.buckets, key)
		}
	}
}

// Close stops the eviction goroutine
func (tb *TokenBucket) Close() error {
	tb.once.Do(func() {
		close(tb.done)
		tb.cleanup.Stop()
	})
	return nil
}
