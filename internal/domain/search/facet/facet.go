package facet

import (
	"strconv"
	"strings"
)

// Operator combines multiple selected values of one facet.
type Operator string

// Operator constants.
const (
	// OR matches documents carrying any selected value (default).
	OR  Operator = "OR"
	AND Operator = "AND"
)

// IsValid checks if the operator is OR or AND.
func (o Operator) IsValid() bool {
	return o == OR || o == AND
}

// ParseOperator parses an operator case-insensitively.
func ParseOperator(s string) (Operator, bool) {
	o := Operator(strings.ToUpper(strings.TrimSpace(s)))
	return o, o.IsValid()
}

// Cardinality tells whether a document carries one or many values of a facet.
type Cardinality string

// Cardinality constants.
const (
	Single   Cardinality = "single"
	Multiple Cardinality = "multiple"
)

// DerivedYear marks a facet computed from the year of a timestamp field.
const DerivedYear = "year"

// Default facet keys.
const (
	KeyType     = "type"
	KeyLanguage = "language"
	KeyTheme    = "theme"
	KeyHazard   = "hazard"
	KeyCountry  = "country"
	KeyRegion   = "region"
	KeyDomain   = "domain"
	KeyYear     = "year"
)

// Field describes a filterable facet backed by an index field.
type Field struct {
	Key         string      `yaml:"key" json:"key"`
	Label       string      `yaml:"label" json:"label"`
	Field       string      `yaml:"field" json:"field"`
	Vocabulary  string      `yaml:"vocabulary,omitempty" json:"vocabulary,omitempty"`
	Cardinality Cardinality `yaml:"cardinality" json:"cardinality"`
	AlwaysOR    bool        `yaml:"always_or,omitempty" json:"always_or,omitempty"`
	Derived     string      `yaml:"derived,omitempty" json:"derived,omitempty"`
}

// IndexField returns the index field name, falling back to the key.
func (f Field) IndexField() string {
	if f.Field == "" {
		return f.Key
	}
	return f.Field
}

// IsYear reports whether the facet is the derived year facet.
func (f Field) IsYear() bool { return f.Derived == DerivedYear }

// DefaultFields returns the built-in facet field list in display order.
func DefaultFields() []Field {
	return []Field{
		{Key: KeyType, Label: "Content type", Field: "type", Cardinality: Single},
		{Key: KeyLanguage, Label: "Language", Field: "langcode", Cardinality: Single, AlwaysOR: true},
		{Key: KeyTheme, Label: "Theme", Field: "field_themes", Vocabulary: "themes", Cardinality: Multiple},
		{Key: KeyHazard, Label: "Hazard", Field: "field_hazards", Vocabulary: "hazards", Cardinality: Multiple},
		{Key: KeyCountry, Label: "Country", Field: "field_countries", Vocabulary: "countries", Cardinality: Multiple},
		{Key: KeyRegion, Label: "Region", Field: "field_regions", Vocabulary: "regions", Cardinality: Multiple},
		{Key: KeyDomain, Label: "Site", Field: "domain_access", Cardinality: Single, AlwaysOR: true},
		{Key: KeyYear, Label: "Year", Field: "created", Cardinality: Single, AlwaysOR: true, Derived: DerivedYear},
	}
}

// IsAlwaysOR reports whether the facet configured under key only accepts
// the OR operator. Unconfigured keys accept both.
func IsAlwaysOR(fields []Field, key string) bool {
	f, ok := FieldByKey(fields, key)
	return ok && f.AlwaysOR
}

// FieldByKey looks up a facet field by key.
func FieldByKey(fields []Field, key string) (Field, bool) {
	for _, f := range fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// CustomOption is one operator-defined choice of a custom facet.
type CustomOption struct {
	Label string `yaml:"label" json:"label"`
	Query string `yaml:"query" json:"query"`
}

// CustomFacet is an operator-defined facet whose values are option indices.
type CustomFacet struct {
	ID          string         `yaml:"id" json:"id"`
	Title       string         `yaml:"title" json:"title"`
	Weight      int            `yaml:"weight" json:"weight"`
	MultiSelect bool           `yaml:"multi_select" json:"multi_select"`
	Options     []CustomOption `yaml:"options" json:"options"`
}

// Option resolves a stored option index. Non-numeric and out-of-range
// indices resolve to false; selections outlive configuration changes.
func (c CustomFacet) Option(index string) (CustomOption, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(index))
	if err != nil || i < 0 || i >= len(c.Options) {
		return CustomOption{}, false
	}
	return c.Options[i], true
}

// CustomFacetByID looks up a custom facet by id.
func CustomFacetByID(facets []CustomFacet, id string) (CustomFacet, bool) {
	for _, c := range facets {
		if c.ID == id {
			return c, true
		}
	}
	return CustomFacet{}, false
}
