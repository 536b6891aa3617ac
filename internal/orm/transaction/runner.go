// Package transaction runs units of work against a database/sql handle:
// commit on success, rollback on error or panic, whole-unit retries on
// deadlocks and busy locks, and an overall deadline.
package transaction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrRetriesExhausted wraps the last retryable failure once every attempt is spent
	ErrRetriesExhausted = errors.New("transaction retries exhausted")
	// ErrTimeout is returned when a unit of work outlives its deadline. It
	// also matches context.DeadlineExceeded.
	ErrTimeout = errors.New("transaction timeout")
)

const maxBackoff = 2 * time.Second

// RetryPolicy bounds whole-unit retries. Backoff doubles after every
// attempt, capped at two seconds.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultRetryPolicy allows three attempts starting at 100ms apart
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{Attempts: 3, Backoff: 100 * time.Millisecond}
}

func (p *RetryPolicy) attempts() int {
	if p == nil || p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}

func (p *RetryPolicy) wait(attempt int) time.Duration {
	if p == nil || p.Backoff <= 0 {
		return 0
	}
	return min(p.Backoff<<attempt, maxBackoff)
}

// Options configures a Runner. The zero value runs each unit once at read
// committed with no deadline.
type Options struct {
	Isolation IsolationLevel
	Timeout   time.Duration
	Retry     *RetryPolicy
	Logger    *zap.Logger
}

// Runner executes units of work
type Runner struct {
	db     *sql.DB
	opts   Options
	logger *zap.Logger
}

// NewRunner creates a runner over db
func NewRunner(db *sql.DB, opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{db: db, opts: opts, logger: logger}
}

// Run executes fn in a transaction. fn may run more than once when the
// database reports a retryable conflict, so it must not keep state across
// calls. The timeout covers every attempt.
func (r *Runner) Run(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if r.opts.Timeout <= 0 {
		return r.retry(ctx, fn)
	}

	deadline, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	err := r.retry(deadline, fn)
	if err != nil && errors.Is(deadline.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w: exceeded %v: %w", ErrTimeout, r.opts.Timeout, context.DeadlineExceeded)
	}
	return err
}

func (r *Runner) retry(ctx context.Context, fn func(tx *sql.Tx) error) error {
	attempts := r.opts.Retry.attempts()

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("transaction cancelled during retry: %w", ctx.Err())
			case <-time.After(r.opts.Retry.wait(attempt - 1)):
			}
		}

		err = r.once(ctx, fn)
		if err == nil || !IsRetryable(err) {
			return err
		}
		r.logger.Warn("retrying transaction",
			zap.Int("attempt", attempt+1),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
	}

	if attempts == 1 {
		return err
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempts, err)
}

// once runs fn in a single transaction
func (r *Runner) once(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := r.db.BeginTx(ctx, r.opts.Isolation.TxOptions())
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
