package facetsearch

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/facetsearch/internal/compiler"
	"github.com/kailas-cloud/facetsearch/internal/coordinator"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/intent"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/settings"
	"github.com/kailas-cloud/facetsearch/internal/transport/elastic"
)

// Widget is one search widget instance. It is safe for concurrent use.
type Widget struct {
	coord *coordinator.Coordinator
	obs   *observer
}

// New creates a Widget and runs its mount search.
func New(opts ...Option) (*Widget, error) {
	cfg := &widgetConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	s := settings.Merge(settings.Default(), cfg.settings)
	if cfg.endpoint != "" {
		s.SearchEndpoint = cfg.endpoint
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	searcher := cfg.searcher
	if searcher == nil {
		if s.SearchEndpoint == "" {
			return nil, fmt.Errorf("%w: search endpoint is required", ErrInvalidSettings)
		}
		searcher = elastic.NewClient(&elastic.Config{
			Endpoint:   s.SearchEndpoint,
			Timeout:    cfg.timeout,
			HTTPClient: cfg.httpClient,
			Headers:    cfg.headers,
		})
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	return &Widget{
		coord: coordinator.New(s, searcher, coordinator.WithObserver(obs)),
		obs:   obs,
	}, nil
}

// Dispatch applies an action and returns once the snapshot reflects it.
// Searches triggered by the action run in the background.
func (w *Widget) Dispatch(ctx context.Context, a Action) error {
	start := time.Now()
	err := w.coord.Dispatch(ctx, a)
	w.obs.observe("dispatch", start, err)
	return err
}

// DispatchJSON decodes one wire-format action and dispatches it.
func (w *Widget) DispatchJSON(ctx context.Context, data []byte) error {
	a, err := intent.DecodeAction(data)
	if err != nil {
		w.obs.observe("dispatch", time.Now(), err)
		return err
	}
	return w.Dispatch(ctx, a)
}

// Snapshot returns the current intent.
func (w *Widget) Snapshot() Intent {
	return w.coord.Snapshot()
}

// Subscribe returns a channel receiving every new snapshot, starting with
// the current one. Slow readers see only the latest snapshot. The returned
// func unsubscribes.
func (w *Widget) Subscribe() (<-chan Intent, func()) {
	return w.coord.Subscribe()
}

// Refresh runs a search for the current intent now. force bypasses the
// minimum query length.
func (w *Widget) Refresh(ctx context.Context, force bool) error {
	start := time.Now()
	err := w.coord.Refresh(ctx, force)
	w.obs.observe("refresh", start, err)
	return err
}

// Compile returns the search document the widget would send for i.
func (w *Widget) Compile(i Intent) *Document {
	return w.coord.Compiler().Compile(compiler.InputFrom(i))
}

// Close cancels the in-flight search and closes every subscription.
// Dispatch and Refresh return ErrClosed afterwards.
func (w *Widget) Close() {
	w.coord.Close()
}
