package labelcache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetsearch/internal/domain"
)

func TestLabel_CacheMissThenHit(t *testing.T) {
	inner := &mockLookup{labels: map[string]string{"themes/4587": "Climate"}}
	r, ms := newTestResolver(t, inner)
	ctx := context.Background()

	label, err := r.Label(ctx, "themes", "4587")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != "Climate" {
		t.Fatalf("label = %q", label)
	}
	if string(ms.data[keyPrefix+"themes:4587"]) != "Climate" {
		t.Fatal("label was not cached")
	}
	if ms.ttls[keyPrefix+"themes:4587"] != time.Hour {
		t.Errorf("ttl = %s", ms.ttls[keyPrefix+"themes:4587"])
	}

	if _, err := r.Label(ctx, "themes", "4587"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := inner.calls.Load(); n != 1 {
		t.Errorf("inner calls = %d, want 1", n)
	}
}

func TestLabel_InnerError(t *testing.T) {
	inner := &mockLookup{err: domain.ErrLabelNotFound}
	r, ms := newTestResolver(t, inner)

	_, err := r.Label(context.Background(), "themes", "1")
	if !errors.Is(err, domain.ErrLabelNotFound) {
		t.Fatalf("expected ErrLabelNotFound, got %v", err)
	}
	if len(ms.data) != 0 {
		t.Error("errors must not be cached")
	}
}

func TestLabel_StoreFailureFallsThrough(t *testing.T) {
	inner := &mockLookup{labels: map[string]string{"themes/1": "Health"}}
	r, ms := newTestResolver(t, inner)
	ms.getErr = errors.New("connection refused")

	label, err := r.Label(context.Background(), "themes", "1")
	if err != nil || label != "Health" {
		t.Fatalf("got %q, %v", label, err)
	}
}

func TestLabel_ConcurrentMissesShareLookup(t *testing.T) {
	inner := &mockLookup{
		labels: map[string]string{"hazards/5706": "Flood"},
		gate:   make(chan struct{}),
	}
	r, _ := newTestResolver(t, inner)

	const n = 8
	var wg sync.WaitGroup
	results := make([]string, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = r.Label(context.Background(), "hazards", "5706")
		}()
	}
	// let the goroutines pile up on the in-flight lookup
	time.Sleep(50 * time.Millisecond)
	close(inner.gate)
	wg.Wait()

	for i, got := range results {
		if got != "Flood" {
			t.Errorf("results[%d] = %q", i, got)
		}
	}
	if calls := inner.calls.Load(); calls >= n {
		t.Errorf("inner calls = %d, expected de-duplication", calls)
	}
}

func TestLabel_CancelledCallerDoesNotFailSharedLookup(t *testing.T) {
	inner := &mockLookup{
		labels: map[string]string{"hazards/5706": "Flood"},
		gate:   make(chan struct{}),
	}
	r, ms := newTestResolver(t, inner)

	ctx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := r.Label(ctx, "hazards", "5706")
		leaderErr <- err
	}()
	for inner.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	waiter := make(chan string, 1)
	go func() {
		label, _ := r.Label(context.Background(), "hazards", "5706")
		waiter <- label
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	if err := <-leaderErr; !errors.Is(err, context.Canceled) {
		t.Errorf("leader error = %v, want context.Canceled", err)
	}
	close(inner.gate)

	select {
	case got := <-waiter:
		if got != "Flood" {
			t.Errorf("waiter label = %q, want Flood", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never returned")
	}
	if inner.calls.Load() != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls.Load())
	}
	if string(ms.data[keyPrefix+"hazards:5706"]) != "Flood" {
		t.Error("shared lookup should still fill the cache")
	}
}

func TestCached(t *testing.T) {
	r, ms := newTestResolver(t, &mockLookup{})
	ms.data[keyPrefix+"themes:1"] = []byte("Health")
	ms.data[keyPrefix+"themes:3"] = []byte("Education")

	got := r.Cached(context.Background(), "themes", []string{"1", "2", "3"})
	if len(got) != 2 || got["1"] != "Health" || got["3"] != "Education" {
		t.Errorf("Cached() = %v", got)
	}

	ms.multErr = errors.New("down")
	if got := r.Cached(context.Background(), "themes", []string{"1"}); len(got) != 0 {
		t.Errorf("Cached() on failure = %v", got)
	}
}

func TestLabel_CacheMetrics(t *testing.T) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_label_cache_total"}, []string{"result"})
	inner := &mockLookup{labels: map[string]string{"themes/1": "Health"}}
	r := New(inner, newMockKVStore(), time.Minute, counter, zap.NewNop())

	_, _ = r.Label(context.Background(), "themes", "1")
	_, _ = r.Label(context.Background(), "themes", "1")

	if got := testutil.ToFloat64(counter.WithLabelValues("miss")); got != 1 {
		t.Errorf("miss = %f, want 1", got)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("hit")); got != 1 {
		t.Errorf("hit = %f, want 1", got)
	}
}
