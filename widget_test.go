package facetsearch

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const waitFor = 2 * time.Second

func intPtr(v int) *int { return &v }

func searchServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "ApiKey test" {
			t.Errorf("missing authorization header")
		}
		var doc map[string]any
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"took": 3,
			"hits": {"total": {"value": 1}, "hits": [{"_id": "a1", "_score": 1.5}]},
			"aggregations": {"type": {"buckets": [{"key": "article", "doc_count": 1}]}}
		}`))
	}))
	t.Cleanup(server.Close)
	return server
}

// waitSettled returns the first non-loading snapshot that satisfies ok.
func waitSettled(t *testing.T, w *Widget, ok func(Intent) bool) Intent {
	t.Helper()
	updates, stop := w.Subscribe()
	defer stop()
	timeout := time.After(waitFor)
	for {
		select {
		case snap := <-updates:
			if !snap.IsLoading && ok(snap) {
				return snap
			}
		case <-timeout:
			t.Fatal("timed out waiting for snapshot")
		}
	}
}

func TestNew_RequiresEndpoint(t *testing.T) {
	_, err := New()
	if !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("expected ErrInvalidSettings, got %v", err)
	}
}

func TestNew_InvalidSettings(t *testing.T) {
	_, err := New(
		WithEndpoint("http://localhost:9200/_search"),
		WithSettings(Settings{ResultsPerPage: intPtr(0)}),
	)
	if !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("expected ErrInvalidSettings, got %v", err)
	}
}

func TestWidget_SearchesOnMountAndDispatch(t *testing.T) {
	var calls atomic.Int32
	server := searchServer(t, &calls)

	w, err := New(
		WithEndpoint(server.URL),
		WithHeaders(map[string]string{"Authorization": "ApiKey test"}),
		WithSettings(Settings{DebounceDelayMS: intPtr(0)}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	snap := waitSettled(t, w, func(s Intent) bool { return s.IsInitialized && s.TotalResults == 1 })
	if len(snap.Results) != 1 || snap.Results[0].ID != "a1" {
		t.Errorf("unexpected results: %+v", snap.Results)
	}
	if got := snap.Aggregations["type"]; len(got) != 1 || got[0].Key != "article" {
		t.Errorf("unexpected aggregations: %+v", snap.Aggregations)
	}

	before := calls.Load()
	if err := w.Dispatch(context.Background(), AddFacet("type", "article")); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got := w.Snapshot().Facets["type"]; len(got) != 1 || got[0] != "article" {
		t.Errorf("facet not applied: %v", w.Snapshot().Facets)
	}
	deadline := time.Now().Add(waitFor)
	for calls.Load() == before && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if calls.Load() == before {
		t.Error("expected a search after the facet change")
	}
}

func TestWidget_DispatchJSON(t *testing.T) {
	var calls atomic.Int32
	server := searchServer(t, &calls)
	w, err := New(
		WithEndpoint(server.URL),
		WithHeaders(map[string]string{"Authorization": "ApiKey test"}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if err := w.DispatchJSON(context.Background(), []byte(`{"type":"setSort","payload":{"sortBy":"newest"}}`)); err != nil {
		t.Fatalf("DispatchJSON: %v", err)
	}
	if w.Snapshot().SortBy != Newest {
		t.Errorf("sort = %q, want newest", w.Snapshot().SortBy)
	}

	err = w.DispatchJSON(context.Background(), []byte(`{"type":"explode"}`))
	if !errors.Is(err, ErrInvalidAction) {
		t.Errorf("expected ErrInvalidAction, got %v", err)
	}
}

func TestWidget_SearchEndpointError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"reason":"index missing"}}`, http.StatusNotFound)
	}))
	defer server.Close()

	w, err := New(WithEndpoint(server.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	snap := waitSettled(t, w, func(s Intent) bool { return s.Error != "" })
	if len(snap.Results) != 0 {
		t.Errorf("expected no results on error, got %d", len(snap.Results))
	}
}

func TestWidget_WithSearcher(t *testing.T) {
	s := &stubSearcher{}
	w, err := New(WithSearcher(s))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	waitSettled(t, w, func(s Intent) bool { return s.IsInitialized })
	if err := w.Refresh(context.Background(), true); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	deadline := time.Now().Add(waitFor)
	for s.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if s.calls.Load() < 2 {
		t.Errorf("expected mount and refresh searches, got %d", s.calls.Load())
	}
}

func TestWidget_Compile(t *testing.T) {
	w, err := New(
		WithSearcher(&stubSearcher{}),
		WithSettings(Settings{ResultsPerPage: intPtr(5)}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	snap := w.Snapshot()
	snap.Page = 3
	doc := w.Compile(snap)
	if doc.Size != 5 {
		t.Errorf("size = %d, want 5", doc.Size)
	}
	if doc.From != 10 {
		t.Errorf("from = %d, want 10", doc.From)
	}
}

func TestWidget_Close(t *testing.T) {
	w, err := New(WithSearcher(&stubSearcher{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	updates, _ := w.Subscribe()
	w.Close()
	w.Close()

	if err := w.Dispatch(context.Background(), SetQuery{Text: "x"}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	for range updates {
	}
}

func TestObserver_NilSafe(t *testing.T) {
	var obs *observer
	obs.observe("test", time.Now(), nil)
	obs.observe("test", time.Now(), errors.New("err"))
	obs.ObserveSearch("ok", time.Millisecond)
}

func TestObserver_WithPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}

	obs.observe("dispatch", time.Now().Add(-10*time.Millisecond), nil)
	obs.observe("dispatch", time.Now(), errors.New("fail"))
	obs.ObserveSearch("ok", 20*time.Millisecond)
	obs.ObserveSearch("skipped", 0)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	samples := map[string]int{}
	for _, f := range families {
		samples[f.GetName()] = len(f.GetMetric())
	}
	if samples["facetsearch_widget_operations_total"] != 2 {
		t.Errorf("expected 2 operation samples, got %d", samples["facetsearch_widget_operations_total"])
	}
	if samples["facetsearch_widget_searches_total"] != 2 {
		t.Errorf("expected 2 search outcome samples, got %d", samples["facetsearch_widget_searches_total"])
	}
}

func TestObserver_ReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.metrics.operations != second.metrics.operations {
		t.Error("expected the registered counter to be reused")
	}
}

func TestObserver_WithLogger(t *testing.T) {
	obs, err := newObserver(slog.Default(), nil)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}
	obs.observe("refresh", time.Now(), nil)
	obs.observe("refresh", time.Now(), errors.New("test error"))
	obs.ObserveSearch("error", time.Millisecond)
}

type stubSearcher struct {
	calls atomic.Int32
}

func (s *stubSearcher) Search(context.Context, *Document) (Response, error) {
	s.calls.Add(1)
	return Response{}, nil
}
