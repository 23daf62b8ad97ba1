package compiler

import "encoding/json"

// Document is a compiled search-engine query document.
type Document struct {
	Size       int                    `json:"size"`
	From       int                    `json:"from,omitempty"`
	Sort       []Sort                 `json:"sort"`
	Query      Query                  `json:"query"`
	Highlight  Highlight              `json:"highlight"`
	Aggs       map[string]Aggregation `json:"aggs"`
	PostFilter *Clause                `json:"post_filter,omitempty"`
}

// Sort is one sort criterion keyed by field.
type Sort map[string]SortOrder

// SortOrder is the direction of a sort criterion.
type SortOrder struct {
	Order string `json:"order"`
}

// Query wraps the scored main query.
type Query struct {
	FunctionScore FunctionScore `json:"function_score"`
}

// FunctionScore combines the boolean query with scoring functions.
type FunctionScore struct {
	Query     Clause     `json:"query"`
	Functions []Function `json:"functions"`
	ScoreMode string     `json:"score_mode"`
	BoostMode string     `json:"boost_mode"`
}

// Function is a single scoring function, optionally restricted by a filter.
type Function struct {
	Filter *Clause          `json:"filter,omitempty"`
	Weight float64          `json:"weight,omitempty"`
	Exp    map[string]Decay `json:"exp,omitempty"`
}

// Decay parameters of an exponential decay function.
type Decay struct {
	Origin string  `json:"origin"`
	Scale  string  `json:"scale"`
	Decay  float64 `json:"decay"`
}

// Clause is one query DSL clause. Exactly one field is set. Raw is
// embedded verbatim and takes precedence over every other field.
type Clause struct {
	Bool        *Bool                  `json:"bool,omitempty"`
	Term        map[string]any         `json:"term,omitempty"`
	Terms       map[string][]string    `json:"terms,omitempty"`
	Range       map[string]Range       `json:"range,omitempty"`
	Exists      *Exists                `json:"exists,omitempty"`
	QueryString *QueryString           `json:"query_string,omitempty"`
	Match       map[string]Match       `json:"match,omitempty"`
	MatchPhrase map[string]MatchPhrase `json:"match_phrase,omitempty"`
	Script      *ScriptQuery           `json:"script,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// MarshalJSON emits Raw when set.
func (c Clause) MarshalJSON() ([]byte, error) {
	if c.Raw != nil {
		return c.Raw, nil
	}
	type plain Clause
	return json.Marshal(plain(c))
}

// Bool is a boolean compound clause.
type Bool struct {
	Must               []Clause `json:"must,omitempty"`
	Filter             []Clause `json:"filter,omitempty"`
	Should             []Clause `json:"should,omitempty"`
	MustNot            []Clause `json:"must_not,omitempty"`
	MinimumShouldMatch int      `json:"minimum_should_match,omitempty"`
}

// Range bounds; nil bounds are open.
type Range struct {
	GTE *float64 `json:"gte,omitempty"`
	LT  *float64 `json:"lt,omitempty"`
}

// Exists matches documents that have a value for Field.
type Exists struct {
	Field string `json:"field"`
}

// QueryString is a Lucene-syntax query over several fields.
type QueryString struct {
	Query           string   `json:"query"`
	Fields          []string `json:"fields,omitempty"`
	DefaultOperator string   `json:"default_operator,omitempty"`
}

// Match is a full-text match.
type Match struct {
	Query string  `json:"query"`
	Boost float64 `json:"boost,omitempty"`
}

// MatchPhrase is a phrase match; Slop 0 requires exact word order.
type MatchPhrase struct {
	Query string  `json:"query"`
	Slop  int     `json:"slop"`
	Boost float64 `json:"boost,omitempty"`
}

// ScriptQuery filters documents by a script predicate.
type ScriptQuery struct {
	Script Script `json:"script"`
}

// Script is an inline painless script.
type Script struct {
	Source string         `json:"source"`
	Lang   string         `json:"lang"`
	Params map[string]any `json:"params,omitempty"`
}

// Highlight configures result highlighting.
type Highlight struct {
	PreTags  []string                  `json:"pre_tags"`
	PostTags []string                  `json:"post_tags"`
	Fields   map[string]HighlightField `json:"fields"`
}

// HighlightField configures fragments for one field. Zero fragments
// highlights the whole field.
type HighlightField struct {
	FragmentSize      int `json:"fragment_size,omitempty"`
	NumberOfFragments int `json:"number_of_fragments"`
}

// Aggregation is a terms aggregation over a field or a script.
type Aggregation struct {
	Terms TermsAggregation `json:"terms"`
}

// TermsAggregation buckets documents by value.
type TermsAggregation struct {
	Field  string  `json:"field,omitempty"`
	Script *Script `json:"script,omitempty"`
	Size   int     `json:"size"`
}
