// Package ratelimit throttles dictionary writes per client, in memory or
// across instances through Redis
package ratelimit

import (
	"context"
	"time"
)

// Limiter decides whether one more request for key fits in its budget
type Limiter interface {
	Allow(ctx context.Context, key string) (*Decision, error)
	Close() error
}

// Decision is the outcome of one Allow call
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Config sizes the budget: Requests per Window for every key
type Config struct {
	Requests int
	Window   time.Duration
}
