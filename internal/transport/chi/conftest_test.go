package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/facetsearch/internal/compiler"
	"github.com/kailas-cloud/facetsearch/internal/domain"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/facet"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/intent"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/settings"
	healthuc "github.com/kailas-cloud/facetsearch/internal/usecase/health"
	labelsuc "github.com/kailas-cloud/facetsearch/internal/usecase/labels"
	sessionuc "github.com/kailas-cloud/facetsearch/internal/usecase/session"
)

type mockSearcher struct {
	mu   sync.Mutex
	docs []*compiler.Document
}

func (m *mockSearcher) Search(_ context.Context, doc *compiler.Document) (intent.Response, error) {
	m.mu.Lock()
	m.docs = append(m.docs, doc)
	m.mu.Unlock()
	return intent.Response{
		Took: 2,
		Hits: intent.HitList{
			Total: intent.Total{Value: 1},
			Hits:  []intent.RawHit{{ID: "doc-1"}},
		},
		Aggregations: map[string]intent.Aggregation{
			facet.KeyType: {Buckets: []intent.Bucket{
				{Key: "report", DocCount: 4},
				{Key: "map", DocCount: 2},
			}},
		},
	}, nil
}

func (m *mockSearcher) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

type mockHealth struct {
	err error
}

func (m *mockHealth) HealthCheck(_ context.Context) error { return m.err }

type mockLookup struct {
	labels map[string]string
}

func (m *mockLookup) Label(_ context.Context, vocabulary, id string) (string, error) {
	if l, ok := m.labels[vocabulary+"/"+id]; ok {
		return l, nil
	}
	return "", domain.ErrLabelNotFound
}

type testEnv struct {
	server   *httptest.Server
	sessions *sessionuc.Service
	searcher *mockSearcher
}

func newTestEnv(t *testing.T, maxSessions int, endpointErr error) *testEnv {
	t.Helper()

	s := settings.Default()
	s.DebounceDelay = 0
	s.CustomFacets = []facet.CustomFacet{{
		ID:      "topic",
		Title:   "Topic",
		Options: []facet.CustomOption{{Label: "Water", Query: "water OR drought"}},
	}}
	s.VisibleFilters = map[string]bool{"type": true, "theme": true, "topic": true}
	s.AllowedTypes = []string{"report", "news"}

	searcher := &mockSearcher{}
	sessions := sessionuc.New(s, searcher, sessionuc.Config{MaxSessions: maxSessions})
	labels := labelsuc.New(s.FacetFields, &mockLookup{labels: map[string]string{"themes/4587": "Climate Change"}}, nil)
	health := healthuc.New(&mockHealth{err: endpointErr}, nil, nil)

	r := chi.NewRouter()
	NewServer(sessions, labels, health, nil).Routes(r)
	srv := httptest.NewServer(r)

	t.Cleanup(func() {
		srv.Close()
		sessions.CloseAll()
	})
	return &testEnv{server: srv, sessions: sessions, searcher: searcher}
}

func (e *testEnv) url(path string) string { return e.server.URL + path }

func (e *testEnv) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, e.url(path), stringsReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}
