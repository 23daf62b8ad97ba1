// Package compiler translates a search intent and widget settings into a
// search-engine query document. Compilation is pure and deterministic.
package compiler

import (
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/facetsearch/internal/domain/search/facet"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/intent"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/order"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/settings"
)

const (
	matchAll        = "*"
	fuzziness       = "~1"
	defaultOperator = "AND"
	modeMultiply    = "multiply"
	painless        = "painless"
)

// Input is the part of an intent that affects the compiled document.
type Input struct {
	Query          string
	Facets         map[string][]string
	FacetOperators map[string]facet.Operator
	CustomFacets   map[string][]string
	SortBy         order.Sort
	Page           int
}

// InputFrom extracts the compiler input from an intent snapshot.
func InputFrom(s intent.Intent) Input {
	return Input{
		Query:          s.Query,
		Facets:         s.Facets,
		FacetOperators: s.FacetOperators,
		CustomFacets:   s.CustomFacets,
		SortBy:         s.SortBy,
		Page:           s.Page,
	}
}

// Compiler compiles inputs against fixed settings. Safe for concurrent use.
type Compiler struct {
	settings  settings.Settings
	stopWords map[string]struct{}
	fields    []string
}

// New creates a compiler for the given settings.
func New(s settings.Settings) *Compiler {
	fields := make([]string, 0, len(s.Profile.Fields))
	for _, f := range s.Profile.Fields {
		if f.Weight <= 0 {
			continue
		}
		fields = append(fields, weighted(f.Field, f.Weight))
	}
	return &Compiler{
		settings:  s,
		stopWords: s.Profile.StopWordSet(),
		fields:    fields,
	}
}

// Compile builds the query document for in.
func (c *Compiler) Compile(in Input) *Document {
	size := c.settings.ResultsPerPage
	doc := &Document{
		Size: size,
		Sort: c.sort(in.SortBy),
		Query: Query{FunctionScore: FunctionScore{
			Query:     c.mainQuery(in.Query),
			Functions: c.functions(),
			ScoreMode: modeMultiply,
			BoostMode: modeMultiply,
		}},
		Highlight:  c.highlight(),
		Aggs:       c.aggregations(),
		PostFilter: c.postFilter(in),
	}
	if in.Page > 1 {
		doc.From = (in.Page - 1) * size
	}
	return doc
}

func (c *Compiler) sort(by order.Sort) []Sort {
	ts := c.settings.Profile.TimestampField
	switch by {
	case order.Newest:
		return []Sort{{ts: {Order: "desc"}}}
	case order.Oldest:
		return []Sort{{ts: {Order: "asc"}}}
	default:
		return []Sort{{"_score": {Order: "desc"}}}
	}
}

func (c *Compiler) mainQuery(raw string) Clause {
	q := Sanitize(raw)
	b := &Bool{
		Must: []Clause{{QueryString: &QueryString{
			Query:           c.mustText(q),
			Fields:          c.fields,
			DefaultOperator: defaultOperator,
		}}},
		Filter: c.baseFilters(),
		Should: c.phraseBoosts(q),
	}
	return Clause{Bool: b}
}

// mustText joins the query with the hidden append fragment, removes stop
// words and adds per-token fuzziness. Quoted input is kept verbatim.
func (c *Compiler) mustText(q string) string {
	combined := normalizeSpace(q + " " + c.settings.QueryAppend)
	if combined == "" {
		return matchAll
	}
	if strings.Contains(combined, `"`) {
		return combined
	}

	tokens := c.removeStopWords(strings.Fields(combined))
	if hasSpecialChars(combined) {
		return strings.Join(tokens, " ")
	}
	for i, t := range tokens {
		if !isOperator(t) {
			tokens[i] = t + fuzziness
		}
	}
	return strings.Join(tokens, " ")
}

// removeStopWords drops stop words and the operators left dangling by
// them. If no term would remain the original tokens are returned.
func (c *Compiler) removeStopWords(tokens []string) []string {
	kept := make([]string, 0, len(tokens))
	terms := 0
	for _, t := range tokens {
		if isOperator(t) {
			if len(kept) == 0 || !isOperator(kept[len(kept)-1]) ||
				(t == "NOT" && kept[len(kept)-1] != "NOT") {
				kept = append(kept, t)
			}
			continue
		}
		if _, stop := c.stopWords[strings.ToLower(t)]; stop {
			continue
		}
		kept = append(kept, t)
		terms++
	}
	if terms == 0 {
		return append([]string(nil), tokens...)
	}
	return trimOperatorTokens(kept)
}

// phraseBoosts emits match and phrase should-clauses for every scored field.
func (c *Compiler) phraseBoosts(q string) []Clause {
	text := c.phraseText(q)
	if text == "" {
		return nil
	}
	p := c.settings.Profile
	var should []Clause
	for _, f := range p.Fields {
		if f.Phrase.Match > 0 {
			should = append(should, Clause{Match: map[string]Match{
				f.Field: {Query: text, Boost: f.Phrase.Match},
			}})
		}
		if f.Phrase.ExactPhrase > 0 {
			should = append(should, Clause{MatchPhrase: map[string]MatchPhrase{
				f.Field: {Query: text, Slop: 0, Boost: f.Phrase.ExactPhrase},
			}})
		}
		if f.Phrase.NearPhrase > 0 {
			should = append(should, Clause{MatchPhrase: map[string]MatchPhrase{
				f.Field: {Query: text, Slop: p.NearSlop, Boost: f.Phrase.NearPhrase},
			}})
		}
	}
	return should
}

// phraseText is the user query without quotes, operators or stop words.
func (c *Compiler) phraseText(q string) string {
	var words []string
	for _, t := range strings.Fields(strings.ReplaceAll(q, `"`, " ")) {
		if !isOperator(t) {
			words = append(words, t)
		}
	}
	var kept []string
	for _, w := range words {
		if _, stop := c.stopWords[strings.ToLower(w)]; !stop {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		kept = words
	}
	return strings.Join(kept, " ")
}

// baseFilters are always applied inside the scored query.
func (c *Compiler) baseFilters() []Clause {
	var filters []Clause
	if f := c.settings.Profile.StatusField; f != "" {
		filters = append(filters, Clause{Term: map[string]any{f: true}})
	}
	for _, frag := range c.settings.CustomFilters {
		if cl, ok := fragment(frag); ok {
			filters = append(filters, cl)
		}
	}
	return filters
}

func (c *Compiler) highlight() Highlight {
	h := c.settings.Highlight
	fields := make(map[string]HighlightField, 2)
	if h.Field != "" {
		fields[h.Field] = HighlightField{FragmentSize: h.FragmentSize, NumberOfFragments: h.Fragments}
	}
	if h.TitleField != "" {
		fields[h.TitleField] = HighlightField{NumberOfFragments: 0}
	}
	return Highlight{
		PreTags:  []string{h.PreTag},
		PostTags: []string{h.PostTag},
		Fields:   fields,
	}
}

func (c *Compiler) aggregations() map[string]Aggregation {
	aggs := make(map[string]Aggregation, len(c.settings.FacetFields))
	for _, f := range c.settings.FacetFields {
		if f.IsYear() {
			aggs[f.Key] = Aggregation{Terms: TermsAggregation{
				Script: yearScript(f.IndexField()),
				Size:   c.settings.AggregationSize,
			}}
			continue
		}
		aggs[f.Key] = Aggregation{Terms: TermsAggregation{
			Field: f.IndexField(),
			Size:  c.settings.AggregationSize,
		}}
	}
	return aggs
}

func weighted(field string, weight float64) string {
	if weight == 1 {
		return field
	}
	return field + "^" + strconv.FormatFloat(weight, 'f', -1, 64)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
