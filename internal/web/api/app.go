package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/datadict/datadict/internal/dict"
	"github.com/datadict/datadict/internal/web/auth"
	"github.com/datadict/datadict/internal/web/cache"
	"github.com/datadict/datadict/internal/web/middleware"
	"github.com/datadict/datadict/internal/web/profiling"
	"github.com/datadict/datadict/internal/web/ratelimit"
	"github.com/datadict/datadict/internal/web/response"
	"github.com/datadict/datadict/internal/web/router"
)

// Pinger reports whether the backing database is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Metrics is the metrics registry as seen by the HTTP layer
type Metrics interface {
	middleware.HTTPObserver
	cache.Observer
	Handler() http.Handler
}

// Options assembles the HTTP surface. Nil optional members disable the
// matching feature.
type Options struct {
	Service *dict.Service
	Logger  *zap.Logger

	// APIPrefix prefixes every dictionary route, e.g. /api/v1
	APIPrefix      string
	RequestTimeout time.Duration
	CORSOrigins    []string

	Database Pinger

	Metrics     Metrics
	MetricsPath string

	Cache    cache.Cache
	CacheTTL time.Duration

	Tokens  *auth.TokenService
	Limiter ratelimit.Limiter

	// Pprof mounts the runtime profiles under /debug/pprof
	Pprof bool
}

// NewHTTPHandler builds the complete HTTP handler: request ids, panic
// recovery and CORS wrap the router; logging, metrics and the request
// timeout run inside it so they see the matched route.
func NewHTTPHandler(opts Options) (http.Handler, *router.Router) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metricsPath := opts.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	r := router.NewRouter()
	r.Use(middleware.Logging(logger, "/health", metricsPath))
	if opts.Metrics != nil {
		r.Use(middleware.Metrics(opts.Metrics))
	}
	r.Use(middleware.Timeout(opts.RequestTimeout))

	r.Get("/health", "health", health(opts.Database))
	if opts.Metrics != nil {
		r.Handle(metricsPath, "metrics", opts.Metrics.Handler())
	}
	if opts.Pprof {
		r.Handle(profiling.Path+"/*", "debug.pprof", profiling.Handler(profiling.Config{}))
	}

	var group []middleware.Middleware
	if opts.Tokens != nil {
		group = append(group, middleware.RequireToken(opts.Tokens, logger))
	}
	if opts.Limiter != nil {
		group = append(group, middleware.RateLimit(opts.Limiter, logger))
	}
	if opts.Cache != nil {
		cfg := cache.MiddlewareConfig{Cache: opts.Cache, TTL: opts.CacheTTL, Logger: logger}
		if opts.Metrics != nil {
			cfg.Observer = opts.Metrics
		}
		group = append(group, cache.Middleware(cfg))
	}

	handlers := NewHandlers(opts.Service, logger)
	r.Group(opts.APIPrefix, group, handlers.Register)

	chain := middleware.NewChain(
		middleware.RequestID(),
		middleware.Recovery(logger),
	)
	if len(opts.CORSOrigins) > 0 {
		chain.Use(middleware.CORS(middleware.DefaultCORSConfig(opts.CORSOrigins)))
	}
	return chain.Then(r), r
}

type healthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// health reports liveness and database reachability
func health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := healthStatus{Status: "ok", Database: "unknown"}
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				status = healthStatus{Status: "degraded", Database: "unreachable"}
				response.JSON(w, http.StatusServiceUnavailable, &response.Envelope{
					Message: "database unreachable",
					Data:    status,
				})
				return
			}
			status.Database = "ok"
		}
		response.OK(w, "ok", status)
	}
}
