package profile

import (
	"fmt"
	"strings"
)

// InterestingnessTiers is the number of discrete interestingness weights.
const InterestingnessTiers = 5

// PhraseBoost holds should-clause boosts for a scored field.
// A zero boost omits the corresponding clause.
type PhraseBoost struct {
	Match       float64 `yaml:"match" json:"match"`
	ExactPhrase float64 `yaml:"exact_phrase" json:"exact_phrase"`
	NearPhrase  float64 `yaml:"near_phrase" json:"near_phrase"`
}

// FieldWeight is a scored text field with its must-clause weight.
type FieldWeight struct {
	Field  string      `yaml:"field" json:"field"`
	Weight float64     `yaml:"weight" json:"weight"`
	Phrase PhraseBoost `yaml:"phrase" json:"phrase"`
}

// Band is a longevity classification with its own decay scale.
type Band struct {
	Name  string `yaml:"name" json:"name"`
	Scale string `yaml:"scale" json:"scale"` // e.g. "365d"
}

// Tier maps an interestingness range [From, To) to a weight. Nil To is unbounded.
type Tier struct {
	From   float64  `yaml:"from" json:"from"`
	To     *float64 `yaml:"to,omitempty" json:"to,omitempty"`
	Weight float64  `yaml:"weight" json:"weight"`
}

// TypeBoost boosts documents of one content type.
type TypeBoost struct {
	Type   string  `yaml:"type" json:"type"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// Profile is the relevance scoring profile.
type Profile struct {
	Fields               []FieldWeight `yaml:"fields" json:"fields"`
	NearSlop             int           `yaml:"near_slop" json:"near_slop"`
	StopWords            []string      `yaml:"stop_words" json:"stop_words"`
	StatusField          string        `yaml:"status_field" json:"status_field"`
	TypeField            string        `yaml:"type_field" json:"type_field"`
	TimestampField       string        `yaml:"timestamp_field" json:"timestamp_field"`
	LongevityField       string        `yaml:"longevity_field" json:"longevity_field"`
	Longevity            []Band        `yaml:"longevity" json:"longevity"`
	DefaultBand          string        `yaml:"default_band" json:"default_band"`
	Decay                float64       `yaml:"decay" json:"decay"`
	InterestingnessField string        `yaml:"interestingness_field" json:"interestingness_field"`
	Interestingness      []Tier        `yaml:"interestingness" json:"interestingness"`
	Featured             TypeBoost     `yaml:"featured" json:"featured"`
	Secondary            TypeBoost     `yaml:"secondary" json:"secondary"`
}

func bound(v float64) *float64 { return &v }

// DefaultStopWords is the built-in English stop-word list.
var DefaultStopWords = []string{
	"a", "an", "and", "are", "as", "at", "be", "but", "by", "for", "if", "in",
	"into", "is", "it", "no", "not", "of", "on", "or", "such", "that", "the",
	"their", "then", "there", "these", "they", "this", "to", "was", "will", "with",
}

// Default returns the built-in scoring profile.
func Default() Profile {
	return Profile{
		Fields: []FieldWeight{
			{Field: "title", Weight: 5, Phrase: PhraseBoost{Match: 2, ExactPhrase: 10, NearPhrase: 5}},
			{Field: "field_teaser", Weight: 3, Phrase: PhraseBoost{Match: 1, ExactPhrase: 6, NearPhrase: 3}},
			{Field: "body", Weight: 1, Phrase: PhraseBoost{Match: 0.5, ExactPhrase: 4, NearPhrase: 2}},
			{Field: "attachments.content", Weight: 0.5, Phrase: PhraseBoost{Match: 0.2, ExactPhrase: 2, NearPhrase: 1}},
		},
		NearSlop:       2,
		StopWords:      append([]string(nil), DefaultStopWords...),
		StatusField:    "status",
		TypeField:      "type",
		TimestampField: "created",
		LongevityField: "field_longevity",
		Longevity: []Band{
			{Name: "short", Scale: "90d"},
			{Name: "medium", Scale: "365d"},
			{Name: "long", Scale: "1095d"},
			{Name: "evergreen", Scale: "3650d"},
		},
		DefaultBand:          "medium",
		Decay:                0.5,
		InterestingnessField: "field_interestingness",
		Interestingness: []Tier{
			{From: 0, To: bound(20), Weight: 0.8},
			{From: 20, To: bound(40), Weight: 0.9},
			{From: 40, To: bound(60), Weight: 1},
			{From: 60, To: bound(80), Weight: 1.1},
			{From: 80, Weight: 1.25},
		},
		Featured:  TypeBoost{Type: "publication", Weight: 1.5},
		Secondary: TypeBoost{Type: "news", Weight: 1.2},
	}
}

// Band returns the longevity band by name.
func (p Profile) Band(name string) (Band, bool) {
	for _, b := range p.Longevity {
		if b.Name == name {
			return b, true
		}
	}
	return Band{}, false
}

// StopWordSet returns the lower-cased stop words as a set.
func (p Profile) StopWordSet() map[string]struct{} {
	set := make(map[string]struct{}, len(p.StopWords))
	for _, w := range p.StopWords {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}

// Validate checks the profile for correctness.
func (p Profile) Validate() error {
	if len(p.Fields) == 0 {
		return fmt.Errorf("at least one scored field is required")
	}
	for _, f := range p.Fields {
		if f.Field == "" {
			return fmt.Errorf("scored field name is required")
		}
		if f.Weight < 0 {
			return fmt.Errorf("field %q: weight must not be negative", f.Field)
		}
	}
	if p.NearSlop < 0 {
		return fmt.Errorf("near_slop must not be negative, got %d", p.NearSlop)
	}
	if p.TimestampField == "" {
		return fmt.Errorf("timestamp_field is required")
	}
	if len(p.Longevity) > 0 {
		if _, ok := p.Band(p.DefaultBand); !ok {
			return fmt.Errorf("default_band %q is not a configured longevity band", p.DefaultBand)
		}
	}
	if p.Decay <= 0 || p.Decay >= 1 {
		return fmt.Errorf("decay must be between 0 and 1 (exclusive), got %v", p.Decay)
	}
	if len(p.Interestingness) != 0 && len(p.Interestingness) != InterestingnessTiers {
		return fmt.Errorf("interestingness needs exactly %d tiers, got %d",
			InterestingnessTiers, len(p.Interestingness))
	}
	return nil
}
