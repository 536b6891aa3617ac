// Package metric exposes datadict operation and HTTP metrics to prometheus
package metric

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/datadict/datadict/internal/dict"
)

const namespace = "datadict"

// Metrics contains the datadict collectors
type Metrics struct {
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	CacheLookups      *prometheus.CounterVec
}

// NewMetrics creates the datadict collectors
func NewMetrics() *Metrics {
	return &Metrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "dictionary",
				Name:      "operations_total",
				Help:      "Dictionary operations by outcome kind (ok on success)",
			},
			[]string{"operation", "kind"},
		),

		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "dictionary",
				Name:      "operation_duration_seconds",
				Help:      "Dictionary operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by route and status code",
			},
			[]string{"method", "route", "status"},
		),

		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "lookups_total",
				Help:      "Response cache lookups by result (hit or miss)",
			},
			[]string{"result"},
		),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Operations,
		m.OperationDuration,
		m.HTTPRequests,
		m.HTTPDuration,
		m.CacheLookups,
	}
}

// Registry owns the prometheus registry and the datadict collectors
type Registry struct {
	prometheusRegistry *prometheus.Registry
	Metrics            *Metrics
}

// NewRegistry creates a registry with the datadict collectors and the Go
// runtime and process collectors
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	m := NewMetrics()

	reg.MustRegister(m.collectors()...)
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Registry{prometheusRegistry: reg, Metrics: m}
}

// PrometheusRegistry returns the underlying prometheus registry
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// Handler serves the registry in the prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(
		r.prometheusRegistry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		},
	)
}

// Observe implements dict.Recorder
func (r *Registry) Observe(op string, kind dict.Kind, elapsed time.Duration) {
	outcome := string(kind)
	if outcome == "" {
		outcome = "ok"
	}
	r.Metrics.Operations.WithLabelValues(op, outcome).Inc()
	r.Metrics.OperationDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveHTTP records a finished HTTP request. route is the matched route
// pattern, not the raw path, to keep label cardinality bounded.
func (r *Registry) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	r.Metrics.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.Metrics.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// CacheLookup records a response cache hit or miss
func (r *Registry) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.Metrics.CacheLookups.WithLabelValues(result).Inc()
}

var _ dict.Recorder = (*Registry)(nil)
