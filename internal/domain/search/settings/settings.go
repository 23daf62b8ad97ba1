package settings

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/facetsearch/internal/domain/search/facet"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/order"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/profile"
)

// Widget defaults.
const (
	DefaultResultsPerPage  = 10
	DefaultDebounceDelay   = 300 * time.Millisecond
	DefaultMinSearchLength = 3
	DefaultAggregationSize = 100
	MaxResultsPerPage      = 100
)

// Filter is a default facet selection applied at initialization.
type Filter struct {
	Key   string `yaml:"key" json:"key"`
	Value string `yaml:"value" json:"value"`
}

// Highlight configures result highlighting.
type Highlight struct {
	Field        string `yaml:"field" json:"field"`
	TitleField   string `yaml:"title_field" json:"title_field"`
	FragmentSize int    `yaml:"fragment_size" json:"fragment_size"`
	Fragments    int    `yaml:"fragments" json:"fragments"`
	PreTag       string `yaml:"pre_tag" json:"pre_tag"`
	PostTag      string `yaml:"post_tag" json:"post_tag"`
}

// Settings is the immutable configuration of one search widget instance.
type Settings struct {
	SearchEndpoint  string              `json:"search_endpoint"`
	ResultsPerPage  int                 `json:"results_per_page"`
	DebounceDelay   time.Duration       `json:"-"`
	MinSearchLength int                 `json:"min_search_length"`
	DefaultQuery    string              `json:"default_query"`
	DefaultSort     order.Sort          `json:"default_sort"`
	DefaultFilters  []Filter            `json:"default_filters"`
	VisibleFilters  map[string]bool     `json:"visible_filters,omitempty"`
	AllowedTypes    []string            `json:"allowed_types,omitempty"`
	QueryAppend     string              `json:"-"`
	CustomFilters   []string            `json:"-"`
	CustomFacets    []facet.CustomFacet `json:"custom_facets"`
	FacetFields     []facet.Field       `json:"facet_fields"`
	AggregationSize int                 `json:"aggregation_size"`
	Highlight       Highlight           `json:"highlight"`
	Profile         profile.Profile     `json:"-"`
}

// Default returns the enumerated default settings.
func Default() Settings {
	return Settings{
		ResultsPerPage:  DefaultResultsPerPage,
		DebounceDelay:   DefaultDebounceDelay,
		MinSearchLength: DefaultMinSearchLength,
		DefaultSort:     order.Relevance,
		FacetFields:     facet.DefaultFields(),
		AggregationSize: DefaultAggregationSize,
		Highlight: Highlight{
			Field:        "body",
			TitleField:   "title",
			FragmentSize: 150,
			Fragments:    3,
			PreTag:       "<mark>",
			PostTag:      "</mark>",
		},
		Profile: profile.Default(),
	}
}

// IsVisible reports whether a facet is shown. An absent allowlist shows all.
func (s Settings) IsVisible(key string) bool {
	if len(s.VisibleFilters) == 0 {
		return true
	}
	return s.VisibleFilters[key]
}

// TypeAllowed reports whether a content-type facet option is shown.
func (s Settings) TypeAllowed(value string) bool {
	if len(s.AllowedTypes) == 0 {
		return true
	}
	for _, t := range s.AllowedTypes {
		if t == value {
			return true
		}
	}
	return false
}

// Validate checks the settings for correctness.
func (s Settings) Validate() error {
	if s.ResultsPerPage <= 0 || s.ResultsPerPage > MaxResultsPerPage {
		return fmt.Errorf("results_per_page must be between 1 and %d, got %d", MaxResultsPerPage, s.ResultsPerPage)
	}
	if s.DebounceDelay < 0 {
		return fmt.Errorf("debounce_delay must not be negative, got %s", s.DebounceDelay)
	}
	if s.MinSearchLength < 0 {
		return fmt.Errorf("min_search_length must not be negative, got %d", s.MinSearchLength)
	}
	if !s.DefaultSort.IsValid() {
		return fmt.Errorf("invalid default_sort: %q", s.DefaultSort)
	}
	if s.AggregationSize <= 0 {
		return fmt.Errorf("aggregation_size must be positive, got %d", s.AggregationSize)
	}
	if s.Highlight.FragmentSize < 0 || s.Highlight.Fragments < 0 {
		return fmt.Errorf("highlight fragment_size and fragments must not be negative")
	}
	seen := make(map[string]bool, len(s.FacetFields))
	for _, f := range s.FacetFields {
		if f.Key == "" {
			return fmt.Errorf("facet field key is required")
		}
		if seen[f.Key] {
			return fmt.Errorf("duplicate facet field %q", f.Key)
		}
		seen[f.Key] = true
	}
	for _, c := range s.CustomFacets {
		if c.ID == "" {
			return fmt.Errorf("custom facet id is required")
		}
		if seen[c.ID] {
			return fmt.Errorf("custom facet %q collides with another facet", c.ID)
		}
		seen[c.ID] = true
	}
	if err := s.Profile.Validate(); err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	return nil
}
