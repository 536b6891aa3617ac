package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/datadict/datadict/internal/cli/config"
	"github.com/datadict/datadict/internal/dict"
	"github.com/datadict/datadict/internal/logging"
	"github.com/datadict/datadict/internal/orm/sqlstore"
)

// env is an opened configuration, logger and store
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *sqlstore.Store
}

// configError marks a failure to load or validate datadict.yaml
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// loadConfig loads the configuration and builds the logger
func (o *options) loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, &configError{err: err}
	}
	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// open loads the configuration and opens the store. With migrate, pending
// migrations are applied when database.auto_migrate is set.
func (o *options) open(ctx context.Context, migrate bool) (*env, error) {
	cfg, logger, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	store, err := sqlstore.Open(ctx, storeConfig(cfg.Database), logger)
	if err != nil {
		return nil, err
	}

	if migrate && cfg.Database.AutoMigrate {
		applied, err := store.Migrate(ctx)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		if applied > 0 {
			logger.Info("migrations applied", zap.Int("count", applied))
		}
	}

	return &env{cfg: cfg, logger: logger, store: store}, nil
}

// service builds the dictionary service over the store
func (e *env) service(opts ...dict.Option) *dict.Service {
	return dict.NewService(e.store, append([]dict.Option{dict.WithLogger(e.logger)}, opts...)...)
}

func (e *env) Close() {
	e.store.Close()
	e.logger.Sync()
}

func storeConfig(db config.DatabaseConfig) sqlstore.Config {
	return sqlstore.Config{
		Driver:          db.Driver,
		DSN:             db.DSN,
		MaxOpenConns:    db.MaxOpenConns,
		MaxIdleConns:    db.MaxIdleConns,
		ConnMaxLifetime: db.ConnMaxLifetime,
		Isolation:       db.Isolation,
		TxTimeout:       db.TxTimeout,
		MaxRetries:      db.MaxRetries,
	}
}
