// Package cache stores rendered GET responses of the dictionary API.
// Every successful mutation clears the cache, because a single write can
// change many views (usage counts, impact, details).
package cache

import (
	"context"
	"errors"
	"time"
)

// Cache defines the interface for all cache backends
type Cache interface {
	// Get retrieves a value; a missing or expired key returns ErrMiss
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with a TTL; zero uses the backend default
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Clear removes every value owned by this cache
	Clear(ctx context.Context) error

	// Close releases the backend
	Close() error
}

// Config holds common configuration for cache backends
type Config struct {
	// DefaultTTL is used when Set is called with a zero TTL
	DefaultTTL time.Duration
	// Prefix is prepended to all cache keys
	Prefix string
	// MaxEntries bounds the memory backend; zero means unbounded
	MaxEntries int
}

// DefaultConfig returns a default cache configuration
func DefaultConfig() Config {
	return Config{
		DefaultTTL: time.Minute,
		Prefix:     "datadict:",
		MaxEntries: 1000,
	}
}

// ErrMiss is returned when a key is not in the cache
var ErrMiss = errors.New("cache miss")
