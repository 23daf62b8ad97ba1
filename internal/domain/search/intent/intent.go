// Package intent holds the search intent snapshot and the reducer that
// transitions it through a closed set of actions.
package intent

import (
	"encoding/json"

	"github.com/kailas-cloud/facetsearch/internal/domain/search/facet"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/order"
)

// Intent is an immutable snapshot of the user's search selection and of
// the latest search outcome. Replace it through Reduce, never in place.
type Intent struct {
	Query          string                    `json:"query"`
	Facets         map[string][]string       `json:"facets"`
	FacetOperators map[string]facet.Operator `json:"facetOperators"`
	CustomFacets   map[string][]string       `json:"customFacets"`
	SortBy         order.Sort                `json:"sortBy"`
	Page           int                       `json:"page"`

	Results       []Hit               `json:"results"`
	Aggregations  map[string][]Bucket `json:"aggregations"`
	TotalResults  int                 `json:"totalResults"`
	SearchTime    int                 `json:"searchTime"`
	IsLoading     bool                `json:"isLoading"`
	Error         string              `json:"error"`
	IsInitialized bool                `json:"isInitialized"`
}

// Hit is a single search result.
type Hit struct {
	ID        string              `json:"id"`
	Score     *float64            `json:"score"`
	Source    json.RawMessage     `json:"source,omitempty"`
	Highlight map[string][]string `json:"highlight,omitempty"`
}

// Bucket is one aggregation value with its document count.
type Bucket struct {
	Key      string `json:"key"`
	DocCount int    `json:"doc_count"`
}

// Initial returns the built-in initial snapshot.
func Initial() Intent {
	return Intent{
		Facets:         map[string][]string{},
		FacetOperators: map[string]facet.Operator{},
		CustomFacets:   map[string][]string{},
		SortBy:         order.Relevance,
		Page:           1,
	}
}

// HasActiveFilters reports whether any facet or custom facet is selected.
func (i Intent) HasActiveFilters() bool {
	return len(i.Facets) > 0 || len(i.CustomFacets) > 0
}

// Operator returns the operator for a facet key, OR when unset.
func (i Intent) Operator(key string) facet.Operator {
	if op, ok := i.FacetOperators[key]; ok && op.IsValid() {
		return op
	}
	return facet.OR
}

// clone copies the maps. Value slices are shared: Reduce never writes
// into an existing slice.
func (i Intent) clone() Intent {
	c := i
	c.Facets = copySelections(i.Facets)
	c.CustomFacets = copySelections(i.CustomFacets)
	c.FacetOperators = make(map[string]facet.Operator, len(i.FacetOperators))
	for k, v := range i.FacetOperators {
		c.FacetOperators[k] = v
	}
	return c
}

func copySelections(m map[string][]string) map[string][]string {
	c := make(map[string][]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
