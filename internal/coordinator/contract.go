package coordinator

import (
	"context"
	"time"

	"github.com/kailas-cloud/facetsearch/internal/compiler"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/intent"
)

// Searcher sends a compiled document to the search endpoint.
// Implementations should return promptly once ctx is cancelled.
type Searcher interface {
	Search(ctx context.Context, doc *compiler.Document) (intent.Response, error)
}

// Observer records search attempt outcomes.
type Observer interface {
	ObserveSearch(outcome string, duration time.Duration)
}

// Search outcomes reported to the Observer.
const (
	OutcomeOK        = "ok"
	OutcomeError     = "error"
	OutcomeCancelled = "cancelled"
	OutcomeSkipped   = "skipped"
)

type nopObserver struct{}

func (nopObserver) ObserveSearch(string, time.Duration) {}
