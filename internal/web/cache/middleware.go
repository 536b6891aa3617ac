package cache

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Observer is told about every cache lookup
type Observer interface {
	CacheLookup(hit bool)
}

// MiddlewareConfig holds configuration for the cache middleware
type MiddlewareConfig struct {
	Cache    Cache
	TTL      time.Duration
	Observer Observer
	Logger   *zap.Logger
}

// cachedResponse is the stored form of a GET response
type cachedResponse struct {
	StatusCode int         `json:"status"`
	Header     http.Header `json:"header"`
	Body       []byte      `json:"body"`
}

// Middleware serves GET requests from the cache and clears the cache after
// every successful mutating request. Only 200 responses are stored.
func Middleware(config MiddlewareConfig) func(http.Handler) http.Handler {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if r.Method != http.MethodGet {
				rec := newRecorder(w, false)
				next.ServeHTTP(rec, r)
				if rec.statusCode < 300 && r.Method != http.MethodHead && r.Method != http.MethodOptions {
					if err := config.Cache.Clear(ctx); err != nil {
						logger.Warn("cache invalidation failed", zap.Error(err))
					}
				}
				return
			}

			key := Key(r)
			if data, err := config.Cache.Get(ctx, key); err == nil {
				var cached cachedResponse
				if err := json.Unmarshal(data, &cached); err == nil {
					observe(config.Observer, true)
					for name, values := range cached.Header {
						w.Header()[name] = values
					}
					w.Header().Set("X-Cache", "HIT")
					w.WriteHeader(cached.StatusCode)
					w.Write(cached.Body)
					return
				}
			}
			observe(config.Observer, false)

			w.Header().Set("X-Cache", "MISS")
			rec := newRecorder(w, true)
			next.ServeHTTP(rec, r)

			if rec.statusCode != http.StatusOK {
				return
			}
			header := rec.Header().Clone()
			header.Del("X-Cache")
			header.Del("X-Request-ID")
			data, err := json.Marshal(cachedResponse{StatusCode: rec.statusCode, Header: header, Body: rec.body.Bytes()})
			if err != nil {
				return
			}
			if err := config.Cache.Set(ctx, key, data, config.TTL); err != nil {
				logger.Warn("cache store failed", zap.Error(err))
			}
		})
	}
}

func observe(o Observer, hit bool) {
	if o != nil {
		o.CacheLookup(hit)
	}
}

// recorder passes the response through while keeping its status and,
// when capture is set, a copy of its body
type recorder struct {
	http.ResponseWriter
	statusCode  int
	capture     bool
	body        bytes.Buffer
	wroteHeader bool
}

func newRecorder(w http.ResponseWriter, capture bool) *recorder {
	return &recorder{ResponseWriter: w, statusCode: http.StatusOK, capture: capture}
}

func (r *recorder) WriteHeader(statusCode int) {
	if r.wroteHeader {
		return
	}
	r.statusCode = statusCode
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *recorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	if r.capture {
		r.body.Write(b)
	}
	return r.ResponseWriter.Write(b)
}
