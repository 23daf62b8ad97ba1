package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/kailas-cloud/facetsearch/internal/compiler"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/intent"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/settings"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type searchFunc func(ctx context.Context, doc *compiler.Document) (intent.Response, error)

// fakeSearcher records every document and answers with respond, or with
// a single hit named after the must-clause text when respond is nil.
type fakeSearcher struct {
	mu      sync.Mutex
	docs    []*compiler.Document
	respond searchFunc
}

func (f *fakeSearcher) Search(ctx context.Context, doc *compiler.Document) (intent.Response, error) {
	f.mu.Lock()
	f.docs = append(f.docs, doc)
	respond := f.respond
	f.mu.Unlock()
	if respond == nil {
		return response(mustText(doc)), nil
	}
	return respond(ctx, doc)
}

func (f *fakeSearcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs)
}

func (f *fakeSearcher) last() *compiler.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.docs) == 0 {
		return nil
	}
	return f.docs[len(f.docs)-1]
}

type fakeObserver struct {
	mu     sync.Mutex
	counts map[string]int
}

func (o *fakeObserver) ObserveSearch(outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.counts == nil {
		o.counts = make(map[string]int)
	}
	o.counts[outcome]++
}

func (o *fakeObserver) count(outcome string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.counts[outcome]
}

func mustText(doc *compiler.Document) string {
	return doc.Query.FunctionScore.Query.Bool.Must[0].QueryString.Query
}

func response(ids ...string) intent.Response {
	hits := make([]intent.RawHit, 0, len(ids))
	for _, id := range ids {
		hits = append(hits, intent.RawHit{ID: id})
	}
	return intent.Response{
		Took: 3,
		Hits: intent.HitList{Total: intent.Total{Value: len(ids)}, Hits: hits},
	}
}

func resultID(s intent.Intent) string {
	if len(s.Results) == 0 {
		return ""
	}
	return s.Results[0].ID
}

func testSettings(delay time.Duration) settings.Settings {
	s := settings.Default()
	s.DebounceDelay = delay
	s.MinSearchLength = 3
	return s
}
