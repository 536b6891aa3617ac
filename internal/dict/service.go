// Package dict implements the data dictionary domain rules: roots, fields
// built from roots, models binding fields, and the invariants between them.
package dict

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/datadict/datadict/internal/conflict"
)

// Recorder observes completed service operations
type Recorder interface {
	// Observe is called once per operation with the outcome kind, which is
	// empty on success
	Observe(op string, kind Kind, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) Observe(string, Kind, time.Duration) {}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecorder sets the operation recorder
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithClock sets the clock used for timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithChecker replaces the default conflict checker
func WithChecker(c *conflict.Checker) Option {
	return func(s *Service) {
		if c != nil {
			s.checker = c
		}
	}
}

// Service applies dictionary operations. Every operation runs in exactly one
// unit of work: it reads the population, decides and writes, and any failure
// rolls back all of its writes.
type Service struct {
	store    Store
	checker  *conflict.Checker
	logger   *zap.Logger
	recorder Recorder
	now      func() time.Time
}

// NewService creates a dictionary service over store
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		checker:  conflict.NewChecker(),
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// run executes fn in a unit of work and classifies the outcome
func (s *Service) run(ctx context.Context, op string, fn func(tx Tx) error) error {
	start := time.Now()
	err := s.store.WithTx(ctx, fn)

	if err != nil {
		var de *Error
		if !errors.As(err, &de) {
			de = internalError(err)
		}
		err = de

		if de.Kind == InternalError {
			s.logger.Error("dictionary operation failed",
				zap.String("op", op),
				zap.Error(de.Err),
			)
		} else {
			s.logger.Debug("dictionary operation rejected",
				zap.String("op", op),
				zap.String("kind", string(de.Kind)),
				zap.String("message", de.Message),
			)
		}
	}

	s.recorder.Observe(op, KindOf(err), time.Since(start))
	return err
}

// index loads the current name index
func (s *Service) index(ctx context.Context, tx Tx) (*conflict.Index, error) {
	entries, err := tx.NameIndex(ctx)
	if err != nil {
		return nil, err
	}
	return conflict.NewIndex(entries), nil
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC()
}

// lookup helpers translate ErrNotFound into the matching domain kind

func getRoot(ctx context.Context, tx Tx, id int64) (*Root, error) {
	root, err := tx.GetRoot(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, notFound(RootNotFound, id)
	}
	return root, err
}

func getField(ctx context.Context, tx Tx, id int64) (*Field, error) {
	field, err := tx.GetField(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, notFound(FieldNotFound, id)
	}
	return field, err
}

func getModel(ctx context.Context, tx Tx, id int64) (*Model, error) {
	model, err := tx.GetModel(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, notFound(ModelNotFound, id)
	}
	return model, err
}

// distinct returns names without repeats, keeping first occurrences in order
func distinct(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func sameList(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
