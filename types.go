package facetsearch

import (
	"github.com/kailas-cloud/facetsearch/internal/compiler"
	"github.com/kailas-cloud/facetsearch/internal/coordinator"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/facet"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/intent"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/order"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/settings"
)

// Settings overrides the built-in widget defaults. Nil fields keep the default.
type Settings = settings.Overrides

// ProfileOverrides replaces parts of the default scoring profile.
type ProfileOverrides = settings.ProfileOverrides

// Filter is a default facet selection applied when the widget mounts.
type Filter = settings.Filter

// Highlight configures result highlighting.
type Highlight = settings.Highlight

// FacetField maps a facet key to its index field.
type FacetField = facet.Field

// CustomFacet is a configured facet whose options are arbitrary query
// clauses.
type CustomFacet = facet.CustomFacet

// CustomOption is one selectable option of a CustomFacet.
type CustomOption = facet.CustomOption

// Operator combines the selected values of one facet.
type Operator = facet.Operator

// Facet operators.
const (
	OR  = facet.OR
	AND = facet.AND
)

// Sort is the result ordering.
type Sort = order.Sort

// Sort orders.
const (
	Relevance = order.Relevance
	Newest    = order.Newest
	Oldest    = order.Oldest
)

// Intent is an immutable snapshot of the widget state.
type Intent = intent.Intent

// Hit is a single search result.
type Hit = intent.Hit

// Bucket is one aggregation value with its document count.
type Bucket = intent.Bucket

// Response is a decoded search endpoint response.
type Response = intent.Response

// Document is a compiled search request body.
type Document = compiler.Document

// Searcher sends a compiled document to a search endpoint. Implement it to
// route searches through a custom transport.
type Searcher = coordinator.Searcher

// Action is one intent transition.
type Action = intent.Action

// Actions accepted by Widget.Dispatch.
type (
	SetQuery          = intent.SetQuery
	SetFacet          = intent.SetFacet
	RemoveFacet       = intent.RemoveFacet
	ClearFacets       = intent.ClearFacets
	SetCustomFacet    = intent.SetCustomFacet
	RemoveCustomFacet = intent.RemoveCustomFacet
	SetFacetOperator  = intent.SetFacetOperator
	SetSort           = intent.SetSort
	SetPage           = intent.SetPage
	Reset             = intent.Reset
)

// Facet replaces the selection of key with values.
func Facet(key string, values ...string) SetFacet { return intent.Facet(key, values...) }

// AddFacet adds values to the selection of key.
func AddFacet(key string, values ...string) SetFacet { return intent.AddFacet(key, values...) }

// RemoveFacetValue removes one value from the selection of key.
func RemoveFacetValue(key, value string) RemoveFacet { return intent.RemoveFacetValue(key, value) }
