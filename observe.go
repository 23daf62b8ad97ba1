package facetsearch

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/facetsearch/internal/coordinator"
)

// widgetMetrics holds prometheus metrics registered for the widget.
type widgetMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	searches   *prometheus.CounterVec
	searchTime prometheus.Histogram
}

func newWidgetMetrics(reg prometheus.Registerer) (*widgetMetrics, error) {
	m := &widgetMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "facetsearch",
			Subsystem: "widget",
			Name:      "operations_total",
			Help:      "Total widget operations by type and status.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "facetsearch",
			Subsystem: "widget",
			Name:      "operation_duration_seconds",
			Help:      "Widget operation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "facetsearch",
			Subsystem: "widget",
			Name:      "searches_total",
			Help:      "Search attempts by outcome.",
		}, []string{"outcome"}),
		searchTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "facetsearch",
			Subsystem: "widget",
			Name:      "search_duration_seconds",
			Help:      "Duration of settled search attempts in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.searches); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.searchTime); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("facetsearch: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("facetsearch: register metric: %w", err)
	}
	return nil
}

// observer provides logging and metrics for widget operations. It also
// receives search outcomes from the coordinator.
type observer struct {
	logger  *slog.Logger
	metrics *widgetMetrics
}

var _ coordinator.Observer = (*observer)(nil)

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	var m *widgetMetrics
	if reg != nil {
		var err error
		m, err = newWidgetMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	return &observer{logger: logger, metrics: m}, nil
}

func (o *observer) observe(op string, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)

	if o.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		o.metrics.operations.WithLabelValues(op, status).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}

	if o.logger != nil {
		if err != nil {
			o.logger.Warn("operation failed",
				"op", op,
				"duration", dur,
				"error", err,
			)
		} else {
			o.logger.Debug("operation completed",
				"op", op,
				"duration", dur,
			)
		}
	}
}

// ObserveSearch implements coordinator.Observer.
func (o *observer) ObserveSearch(outcome string, d time.Duration) {
	if o == nil {
		return
	}
	if o.metrics != nil {
		o.metrics.searches.WithLabelValues(outcome).Inc()
		if outcome == coordinator.OutcomeOK || outcome == coordinator.OutcomeError {
			o.metrics.searchTime.Observe(d.Seconds())
		}
	}
	if o.logger == nil {
		return
	}
	if outcome == coordinator.OutcomeError {
		o.logger.Warn("search failed", "duration", d)
		return
	}
	o.logger.Debug("search settled", "outcome", outcome, "duration", d)
}
