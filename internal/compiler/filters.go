package compiler

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/kailas-cloud/facetsearch/internal/domain/search/facet"
)

// postFilter ANDs every selected facet and custom facet. Selections never
// touch the main query so aggregation counts ignore them.
func (c *Compiler) postFilter(in Input) *Clause {
	var filters []Clause
	for _, key := range sortedKeys(in.Facets) {
		if cl, ok := c.facetFilter(key, in.Facets[key], in.FacetOperators[key]); ok {
			filters = append(filters, cl)
		}
	}
	for _, id := range sortedKeys(in.CustomFacets) {
		if cl, ok := c.customFacetFilter(id, in.CustomFacets[id]); ok {
			filters = append(filters, cl)
		}
	}
	if len(filters) == 0 {
		return nil
	}
	return &Clause{Bool: &Bool{Filter: filters}}
}

func (c *Compiler) facetFilter(key string, values []string, op facet.Operator) (Clause, bool) {
	if len(values) == 0 {
		return Clause{}, false
	}
	f, ok := facet.FieldByKey(c.settings.FacetFields, key)
	if !ok {
		f = facet.Field{Key: key}
	}
	if !op.IsValid() || f.AlwaysOR {
		op = facet.OR
	}
	if f.IsYear() {
		return yearFilter(f.IndexField(), values, op)
	}

	field := f.IndexField()
	switch {
	case len(values) == 1:
		return Clause{Term: map[string]any{field: values[0]}}, true
	case op == facet.AND:
		terms := make([]Clause, 0, len(values))
		for _, v := range values {
			terms = append(terms, Clause{Term: map[string]any{field: v}})
		}
		return Clause{Bool: &Bool{Filter: terms}}, true
	default:
		return Clause{Terms: map[string][]string{field: values}}, true
	}
}

// customFacetFilter resolves stored option indices. Stale or malformed
// indices contribute nothing. A single-select facet keeps its last option.
func (c *Compiler) customFacetFilter(id string, indices []string) (Clause, bool) {
	cf, ok := facet.CustomFacetByID(c.settings.CustomFacets, id)
	if !ok {
		return Clause{}, false
	}
	var clauses []Clause
	for _, idx := range indices {
		opt, ok := cf.Option(idx)
		if !ok {
			continue
		}
		if cl, ok := fragment(opt.Query); ok {
			clauses = append(clauses, cl)
		}
	}
	if !cf.MultiSelect && len(clauses) > 1 {
		clauses = clauses[len(clauses)-1:]
	}
	switch len(clauses) {
	case 0:
		return Clause{}, false
	case 1:
		return clauses[0], true
	default:
		return Clause{Bool: &Bool{Should: clauses, MinimumShouldMatch: 1}}, true
	}
}

// fragment turns a configured raw filter into a clause. JSON objects are
// embedded as-is, anything else is treated as query-string syntax.
func fragment(raw string) (Clause, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Clause{}, false
	}
	if strings.HasPrefix(raw, "{") && json.Valid([]byte(raw)) {
		return Clause{Raw: json.RawMessage(raw)}, true
	}
	return Clause{QueryString: &QueryString{Query: raw}}, true
}

const (
	yearFilterSource = "doc[params.field].size() != 0 && params.years.contains(doc[params.field].value.getYear())"
	yearValueSource  = "doc[params.field].size() == 0 ? null : doc[params.field].value.getYear()"
)

// yearFilter matches documents whose timestamp falls in the selected
// years. Non-numeric values are ignored.
func yearFilter(field string, values []string, op facet.Operator) (Clause, bool) {
	years := make([]int, 0, len(values))
	for _, v := range values {
		y, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			continue
		}
		years = append(years, y)
	}
	if len(years) == 0 {
		return Clause{}, false
	}
	if op == facet.AND && len(years) > 1 {
		scripts := make([]Clause, 0, len(years))
		for _, y := range years {
			scripts = append(scripts, yearClause(field, []int{y}))
		}
		return Clause{Bool: &Bool{Filter: scripts}}, true
	}
	return yearClause(field, years), true
}

func yearClause(field string, years []int) Clause {
	return Clause{Script: &ScriptQuery{Script: Script{
		Source: yearFilterSource,
		Lang:   painless,
		Params: map[string]any{"field": field, "years": years},
	}}}
}

func yearScript(field string) *Script {
	return &Script{
		Source: yearValueSource,
		Lang:   painless,
		Params: map[string]any{"field": field},
	}
}
