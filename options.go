package facetsearch

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Widget.
type Option interface {
	apply(*widgetConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*widgetConfig)

func (f optionFunc) apply(c *widgetConfig) { f(c) }

type widgetConfig struct {
	endpoint   string
	settings   Settings
	httpClient *http.Client
	headers    map[string]string
	timeout    time.Duration
	searcher   Searcher

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithEndpoint sets the search endpoint URL. It takes precedence over
// Settings.SearchEndpoint.
func WithEndpoint(url string) Option {
	return optionFunc(func(c *widgetConfig) {
		c.endpoint = url
	})
}

// WithSettings sets the widget settings. Nil fields keep the built-in
// defaults.
func WithSettings(s Settings) Option {
	return optionFunc(func(c *widgetConfig) {
		c.settings = s
	})
}

// WithHTTPClient sets the HTTP client used to reach the search endpoint.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *widgetConfig) {
		c.httpClient = hc
	})
}

// WithHeaders adds headers to every search request, e.g. Authorization.
func WithHeaders(h map[string]string) Option {
	return optionFunc(func(c *widgetConfig) {
		c.headers = h
	})
}

// WithTimeout bounds each search request. Ignored with WithHTTPClient.
// Default: no timeout beyond cancellation of superseded searches.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *widgetConfig) {
		c.timeout = d
	})
}

// WithSearcher replaces the HTTP transport. The endpoint is not required
// when a searcher is set.
func WithSearcher(s Searcher) Option {
	return optionFunc(func(c *widgetConfig) {
		c.searcher = s
	})
}

// WithLogger enables structured logging for widget operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *widgetConfig) {
		c.logger = l
	})
}

// WithPrometheus registers widget metrics (operation counts, search
// outcomes and durations) on the given registerer. Pass nil to disable
// (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *widgetConfig) {
		c.metricsReg = reg
	})
}
