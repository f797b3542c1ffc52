// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service. Each instance
// carries its own registry so tests can construct metrics freely.
type Metrics struct {
	registry *prometheus.Registry

	// Route resolution metrics
	RouteResolutions  *prometheus.CounterVec // by tier: aggregator, multihop, synthetic
	ResolutionErrors  prometheus.Counter
	ResolutionLatency prometheus.Histogram

	// Venue metrics
	VenueQuotes prometheus.Counter
	VenueErrors *prometheus.CounterVec

	// Price oracle metrics
	PriceCacheHits   prometheus.Counter
	PriceCacheMisses prometheus.Counter

	// Executor metrics
	SwapsBuilt  prometheus.Counter
	SwapsFailed prometheus.Counter
}

// NewMetrics creates a Metrics instance with all metrics registered on a
// fresh registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "swap_router"
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RouteResolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "resolutions_total",
			Help:      "Total route resolutions by fallback tier",
		}, []string{"tier"}),
		ResolutionErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "errors_total",
			Help:      "Total route resolutions that failed with a configuration error",
		}),
		ResolutionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "latency_seconds",
			Help:      "Route resolution latency",
			Buckets:   prometheus.DefBuckets,
		}),

		VenueQuotes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dex",
			Name:      "quotes_total",
			Help:      "Total successful venue quotes",
		}),
		VenueErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dex",
			Name:      "errors_total",
			Help:      "Total venue quote failures by venue",
		}, []string{"venue"}),

		PriceCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "cache_hits_total",
			Help:      "Total price cache hits",
		}),
		PriceCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "cache_misses_total",
			Help:      "Total price cache misses",
		}),

		SwapsBuilt: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "payloads_built_total",
			Help:      "Total swap payloads built or passed through",
		}),
		SwapsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "failures_total",
			Help:      "Total swap executions returned as failures",
		}),
	}
}

// Handler returns an HTTP handler serving this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
