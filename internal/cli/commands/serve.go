package commands

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/datadict/datadict/internal/cli/config"
	"github.com/datadict/datadict/internal/dict"
	"github.com/datadict/datadict/internal/metric"
	"github.com/datadict/datadict/internal/web/api"
	"github.com/datadict/datadict/internal/web/auth"
	"github.com/datadict/datadict/internal/web/cache"
	"github.com/datadict/datadict/internal/web/ratelimit"
	"github.com/datadict/datadict/internal/web/server"
)

func newServeCommand(opts *options) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dictionary HTTP API",
		Long: `Serve the dictionary API until SIGINT or SIGTERM.

Pending migrations are applied first unless database.auto_migrate is off.
Set DATADICT_CACHE_BACKEND=memory or redis to cache GET responses.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			e, err := opts.open(ctx, true)
			if err != nil {
				return err
			}
			if port > 0 {
				e.cfg.Server.Port = port
			}

			app, err := newApplication(ctx, e)
			if err != nil {
				e.Close()
				return err
			}

			srv, err := server.New(server.FromConfig(e.cfg.Server, app.handler))
			if err != nil {
				app.close(ctx)
				return err
			}

			gs := server.NewGracefulShutdown(srv, e.cfg.Server.ShutdownTimeout, e.logger)
			gs.RegisterHook(app.close)
			return gs.Run(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "override server.port")
	return cmd
}

// application is the assembled HTTP surface and the resources it owns
type application struct {
	env     *env
	handler http.Handler
	cache   cache.Cache
	limiter ratelimit.Limiter
}

func newApplication(ctx context.Context, e *env) (*application, error) {
	cfg := e.cfg

	var svcOpts []dict.Option
	apiOpts := api.Options{
		Logger:         e.logger,
		APIPrefix:      cfg.Server.APIPrefix,
		RequestTimeout: cfg.Server.RequestTimeout,
		CORSOrigins:    cfg.Server.CORSOrigins,
		Database:       e.store,
		MetricsPath:    cfg.Metrics.Path,
		CacheTTL:       cfg.Cache.TTL,
		Pprof:          cfg.Server.Pprof,
	}

	if cfg.Metrics.Enabled {
		registry := metric.NewRegistry()
		svcOpts = append(svcOpts, dict.WithRecorder(registry))
		apiOpts.Metrics = registry
	}

	if cfg.Auth.Enabled {
		apiOpts.Tokens = auth.NewTokenService(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	}

	c, err := newCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	apiOpts.Cache = c

	limiter, err := newLimiter(cfg)
	if err != nil {
		if c != nil {
			c.Close()
		}
		return nil, err
	}
	apiOpts.Limiter = limiter

	apiOpts.Service = e.service(svcOpts...)
	handler, routes := api.NewHTTPHandler(apiOpts)
	e.logger.Info("api ready",
		zap.String("prefix", cfg.Server.APIPrefix),
		zap.Int("routes", len(routes.Routes())),
		zap.String("cache", cfg.Cache.Backend),
		zap.Bool("auth", cfg.Auth.Enabled),
		zap.Bool("ratelimit", limiter != nil),
	)

	return &application{env: e, handler: handler, cache: c, limiter: limiter}, nil
}

// close releases the limiter, the cache and the store
func (a *application) close(context.Context) error {
	if a.limiter != nil {
		if err := a.limiter.Close(); err != nil {
			a.env.logger.Warn("failed to close rate limiter", zap.Error(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.env.logger.Warn("failed to close cache", zap.Error(err))
		}
	}
	a.env.Close()
	return nil
}

// newCache builds the configured response cache; nil means caching is off
func newCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	base := cache.Config{DefaultTTL: cfg.TTL, Prefix: cfg.Prefix, MaxEntries: cfg.MaxEntries}

	switch cfg.Backend {
	case "memory":
		return cache.NewMemoryCache(base), nil
	case "redis":
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Cache:    base,
		})
	default:
		return nil, nil
	}
}

// newLimiter builds the write rate limiter; nil means throttling is off
func newLimiter(cfg *config.Config) (ratelimit.Limiter, error) {
	if !cfg.Limit.Enabled {
		return nil, nil
	}
	budget := ratelimit.Config{Requests: cfg.Limit.Requests, Window: cfg.Limit.Window}
	if cfg.Limit.Backend != "redis" {
		return ratelimit.NewTokenBucket(budget)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.RedisAddr,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})
	limiter, err := ratelimit.NewRedisLimiter(client, budget, cfg.Cache.Prefix)
	if err != nil {
		client.Close()
		return nil, err
	}
	return limiter, nil
}
