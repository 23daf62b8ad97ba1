package session

import (
	"github.com/kailas-cloud/facetsearch/internal/coordinator"
)

// Searcher executes compiled search documents. It is shared by every session.
type Searcher = coordinator.Searcher

// Gauge tracks the number of open sessions.
type Gauge interface {
	Inc()
	Dec()
}
