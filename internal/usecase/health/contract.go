package health

import "context"

// EndpointChecker checks search endpoint availability.
type EndpointChecker interface {
	HealthCheck(ctx context.Context) error
}

// CachePinger checks label cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// TaxonomyChecker checks taxonomy service availability.
type TaxonomyChecker interface {
	HealthCheck(ctx context.Context) error
}
