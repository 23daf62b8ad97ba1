package intent

import (
	"slices"

	"github.com/kailas-cloud/facetsearch/internal/domain/search/facet"
)

// Reduce returns the snapshot that results from applying a to s.
// s is never modified. Every selection change resets the page to 1;
// SetPage is the only way to move past page 1.
func Reduce(s Intent, a Action) Intent {
	switch a := a.(type) {
	case SetQuery:
		n := s.clone()
		n.Query = a.Text
		n.Page = 1
		return n

	case SetFacet:
		n := s.clone()
		values := dedupe(a.Values)
		if !a.Replace {
			values = union(n.Facets[a.Key], values)
		}
		setOrDelete(n.Facets, a.Key, values)
		n.Page = 1
		return n

	case RemoveFacet:
		n := s.clone()
		if a.Value == nil {
			delete(n.Facets, a.Key)
		} else {
			setOrDelete(n.Facets, a.Key, without(n.Facets[a.Key], *a.Value))
		}
		n.Page = 1
		return n

	case ClearFacets:
		n := s.clone()
		n.Facets = map[string][]string{}
		n.FacetOperators = map[string]facet.Operator{}
		n.CustomFacets = map[string][]string{}
		n.Page = 1
		return n

	case SetCustomFacet:
		n := s.clone()
		setOrDelete(n.CustomFacets, a.ID, dedupe(a.Values))
		n.Page = 1
		return n

	case RemoveCustomFacet:
		n := s.clone()
		delete(n.CustomFacets, a.ID)
		n.Page = 1
		return n

	case SetFacetOperator:
		if !a.Operator.IsValid() {
			return s
		}
		n := s.clone()
		n.FacetOperators[a.Key] = a.Operator
		n.Page = 1
		return n

	case SetSort:
		if !a.Sort.IsValid() {
			return s
		}
		n := s.clone()
		n.SortBy = a.Sort
		n.Page = 1
		return n

	case SetPage:
		n := s.clone()
		n.Page = max(a.Page, 1)
		return n

	case SetLoading:
		n := s.clone()
		n.IsLoading = a.Loading
		if a.Loading {
			n.Error = ""
		}
		return n

	case SetResults:
		n := s.clone()
		n.Results = a.Response.Results()
		n.Aggregations = a.Response.Buckets()
		n.TotalResults = a.Response.Hits.Total.Value
		n.SearchTime = a.Response.Took
		n.IsLoading = false
		n.Error = ""
		return n

	case SetError:
		// Prior results stay visible.
		n := s.clone()
		n.Error = a.Message
		n.IsLoading = false
		return n

	case Initialize:
		n := s.clone()
		for _, f := range a.DefaultFilters {
			if f.Key == "" || f.Value == "" {
				continue
			}
			setOrDelete(n.Facets, f.Key, union(n.Facets[f.Key], []string{f.Value}))
		}
		if a.DefaultQuery != "" {
			n.Query = a.DefaultQuery
		}
		if a.DefaultSort.IsValid() {
			n.SortBy = a.DefaultSort
		}
		n.Page = 1
		n.IsInitialized = true
		return n

	case Reset:
		n := Initial()
		n.IsInitialized = s.IsInitialized
		return n
	}
	return s
}

// SameSelection reports whether a and b would compile to the same query.
func SameSelection(a, b Intent) bool {
	return a.Query == b.Query &&
		a.SortBy == b.SortBy &&
		a.Page == b.Page &&
		sameSelections(a.Facets, b.Facets) &&
		sameSelections(a.CustomFacets, b.CustomFacets) &&
		sameOperators(a, b)
}

func sameSelections(a, b map[string][]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok || !slices.Equal(v, w) {
			return false
		}
	}
	return true
}

// sameOperators compares effective operators of the selected facets only.
func sameOperators(a, b Intent) bool {
	for k := range a.Facets {
		if a.Operator(k) != b.Operator(k) {
			return false
		}
	}
	return true
}

func setOrDelete(m map[string][]string, key string, values []string) {
	if len(values) == 0 {
		delete(m, key)
		return
	}
	m[key] = values
}

// dedupe returns a new slice without empty or repeated values, keeping order.
func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func union(existing, added []string) []string {
	out := make([]string, 0, len(existing)+len(added))
	out = append(out, existing...)
	for _, v := range added {
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func without(values []string, v string) []string {
	out := make([]string, 0, len(values))
	for _, x := range values {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
