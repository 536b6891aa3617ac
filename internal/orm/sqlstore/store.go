// Package sqlstore persists the dictionary in SQLite or PostgreSQL through
// database/sql
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"go.uber.org/zap"

	"github.com/datadict/datadict/internal/dict"
	"github.com/datadict/datadict/internal/orm/dialect"
	"github.com/datadict/datadict/internal/orm/migrate"
	"github.com/datadict/datadict/internal/orm/transaction"
)

var (
	_ dict.Store = (*Store)(nil)
	_ dict.Tx    = (*txStore)(nil)
)

// Config describes how to open the database
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Isolation       string
	TxTimeout       time.Duration
	MaxRetries      int
}

// Store implements dict.Store on a database/sql handle
type Store struct {
	db      *sql.DB
	dialect dialect.Dialect
	tx      transaction.Options
	runner  *transaction.Runner
	logger  *zap.Logger
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger used for migrations and diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRetry sets how units of work are retried on deadlocks and busy locks.
// A nil config runs every unit exactly once.
func WithRetry(policy *transaction.RetryPolicy) Option {
	return func(s *Store) { s.tx.Retry = policy }
}

// WithTxTimeout bounds the duration of every unit of work
func WithTxTimeout(timeout time.Duration) Option {
	return func(s *Store) { s.tx.Timeout = timeout }
}

// WithIsolation sets the isolation level of every unit of work
func WithIsolation(level transaction.IsolationLevel) Option {
	return func(s *Store) { s.tx.Isolation = level }
}

// New wraps an open database handle
func New(db *sql.DB, d dialect.Dialect, opts ...Option) *Store {
	s := &Store{
		db:      db,
		dialect: d,
		tx:      transaction.Options{Retry: transaction.DefaultRetryPolicy()},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tx.Logger = s.logger
	s.runner = transaction.NewRunner(db, s.tx)
	return s
}

// Open opens and pings the configured database
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	d, err := dialect.ForDriver(cfg.Driver)
	if err != nil {
		return nil, err
	}
	level, err := transaction.ParseIsolationLevel(cfg.Isolation)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if !d.IsPostgres() && isMemoryDSN(cfg.DSN) {
		// every connection to :memory: is a separate database
		maxOpen = 1
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	retry := transaction.DefaultRetryPolicy()
	if cfg.MaxRetries > 0 {
		retry.Attempts = cfg.MaxRetries
	}

	return New(db, d,
		WithLogger(logger),
		WithIsolation(level),
		WithRetry(retry),
		WithTxTimeout(cfg.TxTimeout),
	), nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == "" || strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// DB returns the underlying handle
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the SQL flavor of the store
func (s *Store) Dialect() dialect.Dialect {
	return s.dialect
}

// Ping checks that the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrator returns a migration runner bound to the store's database
func (s *Store) Migrator() *migrate.Runner {
	return migrate.NewRunner(s.db, s.dialect, s.logger)
}

// Migrate applies every pending embedded migration
func (s *Store) Migrate(ctx context.Context) (int, error) {
	migrations, err := migrate.Load(s.dialect)
	if err != nil {
		return 0, err
	}
	return s.Migrator().MigrateUp(ctx, migrations)
}

// WithTx runs fn in one transaction, retrying the whole unit on deadlocks
// and busy locks
func (s *Store) WithTx(ctx context.Context, fn func(tx dict.Tx) error) error {
	return s.runner.Run(ctx, func(tx *sql.Tx) error {
		return fn(&txStore{tx: tx, d: s.dialect})
	})
}

// txStore implements dict.Tx on a single sql.Tx
type txStore struct {
	tx *sql.Tx
	d  dialect.Dialect
}

func (t *txStore) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	res, err := t.tx.ExecContext(ctx, t.d.Rebind(query), args...)
	if err != nil {
		return nil, ConvertDBError(err)
	}
	return res, nil
}

// execOne runs a write that must touch exactly one row
func (t *txStore) execOne(ctx context.Context, query string, args ...interface{}) error {
	res, err := t.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return dict.ErrNotFound
	}
	return nil
}

func (t *txStore) query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	rows, err := t.tx.QueryContext(ctx, t.d.Rebind(query), args...)
	if err != nil {
		return nil, ConvertDBError(err)
	}
	return rows, nil
}

func (t *txStore) queryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return t.tx.QueryRowContext(ctx, t.d.Rebind(query), args...)
}

// insert runs an INSERT and returns the generated id
func (t *txStore) insert(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var id int64
	if err := t.queryRow(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
		return 0, ConvertDBError(err)
	}
	return id, nil
}

func (t *txStore) count(ctx context.Context, query string, args ...interface{}) (int, error) {
	var n int
	if err := t.queryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, ConvertDBError(err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// placeholders returns "?, ?, ..." for n arguments
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(values []string) []interface{} {
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

func idArgs(ids []int64) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// filter accumulates WHERE conditions for list queries
type filter struct {
	conds []string
	args  []interface{}
}

func (f *filter) add(cond string, args ...interface{}) {
	f.conds = append(f.conds, cond)
	f.args = append(f.args, args...)
}

// likeEscaper makes LIKE wildcards in a search term match literally
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// search matches the term as a case-insensitive substring of any of the
// columns. LOWER on both sides keeps sqlite and postgres in agreement.
func (f *filter) search(term string, columns ...string) {
	if term == "" {
		return
	}
	like := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
	parts := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, c := range columns {
		parts[i] = "LOWER(" + c + `) LIKE ? ESCAPE '\'`
		args[i] = like
	}
	f.add("("+strings.Join(parts, " OR ")+")", args...)
}

func (f *filter) where() string {
	if len(f.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.conds, " AND ")
}

// list counts the matching rows of table and runs the paginated select
func (t *txStore) list(ctx context.Context, columns, table string, f *filter, p dict.ListParams) (*sql.Rows, int, error) {
	p = p.Normalized()
	total, err := t.count(ctx, "SELECT COUNT(*) FROM "+table+f.where(), f.args...)
	if err != nil {
		return nil, 0, err
	}

	query := "SELECT " + columns + " FROM " + table + f.where() + " ORDER BY id LIMIT ? OFFSET ?"
	args := append(append([]interface{}{}, f.args...), p.PageSize, p.Offset())
	rows, err := t.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
