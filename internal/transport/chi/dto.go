package chi

import (
	"encoding/json"
	"maps"

	"github.com/kailas-cloud/facetsearch/internal/domain/search/facet"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/intent"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/order"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/settings"
	"github.com/kailas-cloud/facetsearch/internal/usecase/labels"
)

// SessionResponse is returned by session endpoints.
type SessionResponse struct {
	ID     string        `json:"id"`
	Intent intent.Intent `json:"intent"`
}

// CompileRequest compiles Intent (or the initial intent) after applying Actions.
type CompileRequest struct {
	Intent  *intent.Intent    `json:"intent,omitempty"`
	Actions []json.RawMessage `json:"actions,omitempty"`
}

// LabelsResponse lists resolved labels of one facet.
type LabelsResponse struct {
	Facet  string         `json:"facet"`
	Labels []labels.Label `json:"labels"`
}

// SettingsResponse is the presentation view of the widget settings.
type SettingsResponse struct {
	ResultsPerPage  int                 `json:"resultsPerPage"`
	DebounceDelayMS int64               `json:"debounceDelay"`
	MinSearchLength int                 `json:"minSearchLength"`
	DefaultSort     order.Sort          `json:"defaultSort"`
	Sorts           []order.Sort        `json:"sorts"`
	FacetFields     []facet.Field       `json:"facetFields"`
	CustomFacets    []facet.CustomFacet `json:"customFacets"`
	AllowedTypes    []string            `json:"allowedTypes,omitempty"`
}

// HealthResponse reports component health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version"`
}

func settingsToResponse(s settings.Settings) SettingsResponse {
	fields := make([]facet.Field, 0, len(s.FacetFields))
	for _, f := range s.FacetFields {
		if s.IsVisible(f.Key) {
			fields = append(fields, f)
		}
	}
	custom := make([]facet.CustomFacet, 0, len(s.CustomFacets))
	for _, c := range s.CustomFacets {
		if s.IsVisible(c.ID) {
			custom = append(custom, c)
		}
	}
	return SettingsResponse{
		ResultsPerPage:  s.ResultsPerPage,
		DebounceDelayMS: s.DebounceDelay.Milliseconds(),
		MinSearchLength: s.MinSearchLength,
		DefaultSort:     s.DefaultSort,
		Sorts:           []order.Sort{order.Relevance, order.Newest, order.Oldest},
		FacetFields:     fields,
		CustomFacets:    custom,
		AllowedTypes:    s.AllowedTypes,
	}
}

// sessionToResponse hides content-type buckets the deployment does not offer.
func sessionToResponse(s settings.Settings, id string, snap intent.Intent) SessionResponse {
	if buckets, ok := snap.Aggregations[facet.KeyType]; ok && len(s.AllowedTypes) > 0 {
		kept := make([]intent.Bucket, 0, len(buckets))
		for _, b := range buckets {
			if s.TypeAllowed(b.Key) {
				kept = append(kept, b)
			}
		}
		aggs := maps.Clone(snap.Aggregations)
		aggs[facet.KeyType] = kept
		snap.Aggregations = aggs
	}
	return SessionResponse{ID: id, Intent: snap}
}
