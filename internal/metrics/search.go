package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "facetsearch"

// Search executor and endpoint Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Search attempts by outcome",
		},
		[]string{"outcome"}, // ok / error / cancelled / skipped
	)

	SearchRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_request_duration_seconds",
			Help:      "Duration of completed search attempts in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"outcome"},
	)

	EndpointRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "endpoint_requests_total",
			Help:      "Requests sent to the search endpoint by status",
		},
		[]string{"status"}, // HTTP status code, "error" or "cancelled"
	)

	EndpointRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "endpoint_request_duration_seconds",
			Help:      "Search endpoint round-trip duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	LabelCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "label_cache_total",
			Help:      "Label cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	LabelLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "label_lookups_total",
			Help:      "Taxonomy label lookups by status",
		},
		[]string{"status"}, // "ok" / "not_found" / "error"
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Open widget sessions",
		},
	)
)

var registerSearch sync.Once

// RegisterSearchMetrics registers the search metrics with the default registry.
func RegisterSearchMetrics() {
	registerSearch.Do(func() {
		prometheus.MustRegister(
			SearchRequestsTotal,
			SearchRequestDuration,
			EndpointRequestsTotal,
			EndpointRequestDuration,
			LabelCacheTotal,
			LabelLookupsTotal,
			ActiveSessions,
		)
	})
}

// SearchObserver records coordinator outcomes into the search metrics.
type SearchObserver struct{}

// ObserveSearch implements coordinator.Observer.
func (SearchObserver) ObserveSearch(outcome string, d time.Duration) {
	SearchRequestsTotal.WithLabelValues(outcome).Inc()
	if d > 0 {
		SearchRequestDuration.WithLabelValues(outcome).Observe(d.Seconds())
	}
}
