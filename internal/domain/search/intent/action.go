package intent

import (
	"github.com/kailas-cloud/facetsearch/internal/domain/search/facet"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/order"
)

// ActionType names an action variant on the wire.
type ActionType string

// Action types.
const (
	TypeSetQuery          ActionType = "setQuery"
	TypeSetFacet          ActionType = "setFacet"
	TypeRemoveFacet       ActionType = "removeFacet"
	TypeClearFacets       ActionType = "clearFacets"
	TypeSetCustomFacet    ActionType = "setCustomFacet"
	TypeRemoveCustomFacet ActionType = "removeCustomFacet"
	TypeSetFacetOperator  ActionType = "setFacetOperator"
	TypeSetSort           ActionType = "setSort"
	TypeSetPage           ActionType = "setPage"
	TypeSetLoading        ActionType = "setLoading"
	TypeSetResults        ActionType = "setResults"
	TypeSetError          ActionType = "setError"
	TypeInitialize        ActionType = "initialize"
	TypeReset             ActionType = "reset"
)

// Action is the closed set of intent transitions.
type Action interface {
	Type() ActionType
	action()
}

// SetQuery replaces the query text.
type SetQuery struct{ Text string }

// SetFacet sets (Replace) or extends the selected values of a facet.
type SetFacet struct {
	Key     string
	Values  []string
	Replace bool
}

// RemoveFacet removes one value, or the whole facet when Value is nil.
type RemoveFacet struct {
	Key   string
	Value *string
}

// ClearFacets drops every facet, operator and custom facet selection.
type ClearFacets struct{}

// SetCustomFacet replaces the selected option indices of a custom facet.
type SetCustomFacet struct {
	ID     string
	Values []string
}

// RemoveCustomFacet drops a custom facet selection.
type RemoveCustomFacet struct{ ID string }

// SetFacetOperator sets how multiple values of one facet combine.
type SetFacetOperator struct {
	Key      string
	Operator facet.Operator
}

// SetSort changes the result ordering.
type SetSort struct{ Sort order.Sort }

// SetPage moves to a 1-based result page.
type SetPage struct{ Page int }

// SetLoading marks a search as in flight.
type SetLoading struct{ Loading bool }

// SetResults applies a search response.
type SetResults struct{ Response Response }

// SetError records a failed search.
type SetError struct{ Message string }

// DefaultFilter is a facet selection seeded at initialization.
type DefaultFilter struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Initialize runs the one-time setup of a widget instance.
type Initialize struct {
	DefaultFilters []DefaultFilter
	DefaultQuery   string
	DefaultSort    order.Sort
}

// Reset restores the initial snapshot.
type Reset struct{}

func (SetQuery) Type() ActionType          { return TypeSetQuery }
func (SetFacet) Type() ActionType          { return TypeSetFacet }
func (RemoveFacet) Type() ActionType       { return TypeRemoveFacet }
func (ClearFacets) Type() ActionType       { return TypeClearFacets }
func (SetCustomFacet) Type() ActionType    { return TypeSetCustomFacet }
func (RemoveCustomFacet) Type() ActionType { return TypeRemoveCustomFacet }
func (SetFacetOperator) Type() ActionType  { return TypeSetFacetOperator }
func (SetSort) Type() ActionType           { return TypeSetSort }
func (SetPage) Type() ActionType           { return TypeSetPage }
func (SetLoading) Type() ActionType        { return TypeSetLoading }
func (SetResults) Type() ActionType        { return TypeSetResults }
func (SetError) Type() ActionType          { return TypeSetError }
func (Initialize) Type() ActionType        { return TypeInitialize }
func (Reset) Type() ActionType             { return TypeReset }

func (SetQuery) action()          {}
func (SetFacet) action()          {}
func (RemoveFacet) action()       {}
func (ClearFacets) action()       {}
func (SetCustomFacet) action()    {}
func (RemoveCustomFacet) action() {}
func (SetFacetOperator) action()  {}
func (SetSort) action()           {}
func (SetPage) action()           {}
func (SetLoading) action()        {}
func (SetResults) action()        {}
func (SetError) action()          {}
func (Initialize) action()        {}
func (Reset) action()             {}

// Facet replaces the selection of key with values.
func Facet(key string, values ...string) SetFacet {
	return SetFacet{Key: key, Values: values, Replace: true}
}

// AddFacet unions values into the selection of key.
func AddFacet(key string, values ...string) SetFacet {
	return SetFacet{Key: key, Values: values}
}

// RemoveFacetValue removes a single value from key.
func RemoveFacetValue(key, value string) RemoveFacet {
	return RemoveFacet{Key: key, Value: &value}
}
