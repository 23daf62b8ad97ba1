package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	endpoint EndpointChecker
	cache    CachePinger
	taxonomy TaxonomyChecker
}

// New creates a Service. cache and taxonomy can be nil.
func New(endpoint EndpointChecker, cache CachePinger, taxonomy TaxonomyChecker) *Service {
	return &Service{endpoint: endpoint, cache: cache, taxonomy: taxonomy}
}

// Check runs health checks against all components. A failing search
// endpoint makes the service unhealthy; other failures only degrade it.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks["search"] = result(s.endpoint.HealthCheck(ctx))
	if s.cache != nil {
		checks["cache"] = result(s.cache.Ping(ctx))
	}
	if s.taxonomy != nil {
		checks["taxonomy"] = result(s.taxonomy.HealthCheck(ctx))
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if checks["search"] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
