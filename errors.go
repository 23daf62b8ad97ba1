package facetsearch

import "github.com/kailas-cloud/facetsearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidAction   = domain.ErrInvalidAction
	ErrInvalidSettings = domain.ErrInvalidSettings
	ErrClosed          = domain.ErrClosed
	ErrSearchEndpoint  = domain.ErrSearchEndpoint
	ErrLabelNotFound   = domain.ErrLabelNotFound
)
