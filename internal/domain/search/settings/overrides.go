package settings

import (
	"time"

	"github.com/kailas-cloud/facetsearch/internal/domain/search/facet"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/order"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/profile"
)

// Overrides holds caller-supplied options. Nil fields keep the default.
type Overrides struct {
	SearchEndpoint  *string             `yaml:"search_endpoint" json:"searchEndpoint,omitempty"`
	ResultsPerPage  *int                `yaml:"results_per_page" json:"resultsPerPage,omitempty"`
	DebounceDelayMS *int                `yaml:"debounce_delay_ms" json:"debounceDelay,omitempty"`
	MinSearchLength *int                `yaml:"min_search_length" json:"minSearchLength,omitempty"`
	DefaultQuery    *string             `yaml:"default_query" json:"defaultQuery,omitempty"`
	DefaultSort     *order.Sort         `yaml:"default_sort" json:"defaultSort,omitempty"`
	DefaultFilters  []Filter            `yaml:"default_filters" json:"defaultFilters,omitempty"`
	VisibleFilters  map[string]bool     `yaml:"visible_filters" json:"visibleFilters,omitempty"`
	AllowedTypes    []string            `yaml:"allowed_types" json:"allowedTypes,omitempty"`
	QueryAppend     *string             `yaml:"query_append" json:"queryAppend,omitempty"`
	CustomFilters   []string            `yaml:"custom_filters" json:"customFilters,omitempty"`
	CustomFacets    []facet.CustomFacet `yaml:"custom_facets" json:"customFacets,omitempty"`
	FacetFields     []facet.Field       `yaml:"facet_fields" json:"facetFields,omitempty"`
	AggregationSize *int                `yaml:"aggregation_size" json:"aggregationSize,omitempty"`
	Highlight       *Highlight          `yaml:"highlight" json:"highlight,omitempty"`
	Profile         *ProfileOverrides   `yaml:"profile" json:"profile,omitempty"`
}

// ProfileOverrides replaces parts of the default scoring profile.
type ProfileOverrides struct {
	Fields          []profile.FieldWeight `yaml:"fields" json:"fields,omitempty"`
	NearSlop        *int                  `yaml:"near_slop" json:"nearSlop,omitempty"`
	StopWords       []string              `yaml:"stop_words" json:"stopWords,omitempty"`
	Longevity       []profile.Band        `yaml:"longevity" json:"longevity,omitempty"`
	DefaultBand     *string               `yaml:"default_band" json:"defaultBand,omitempty"`
	Interestingness []profile.Tier        `yaml:"interestingness" json:"interestingness,omitempty"`
	Featured        *profile.TypeBoost    `yaml:"featured" json:"featured,omitempty"`
	Secondary       *profile.TypeBoost    `yaml:"secondary" json:"secondary,omitempty"`
}

// Merge returns base with every non-nil override applied. base is not modified.
func Merge(base Settings, o Overrides) Settings {
	s := base.clone()
	if o.SearchEndpoint != nil {
		s.SearchEndpoint = *o.SearchEndpoint
	}
	if o.ResultsPerPage != nil {
		s.ResultsPerPage = *o.ResultsPerPage
	}
	if o.DebounceDelayMS != nil {
		s.DebounceDelay = time.Duration(*o.DebounceDelayMS) * time.Millisecond
	}
	if o.MinSearchLength != nil {
		s.MinSearchLength = *o.MinSearchLength
	}
	if o.DefaultQuery != nil {
		s.DefaultQuery = *o.DefaultQuery
	}
	if o.DefaultSort != nil {
		s.DefaultSort = *o.DefaultSort
	}
	if o.DefaultFilters != nil {
		s.DefaultFilters = append([]Filter(nil), o.DefaultFilters...)
	}
	if o.VisibleFilters != nil {
		s.VisibleFilters = make(map[string]bool, len(o.VisibleFilters))
		for k, v := range o.VisibleFilters {
			s.VisibleFilters[k] = v
		}
	}
	if o.AllowedTypes != nil {
		s.AllowedTypes = append([]string(nil), o.AllowedTypes...)
	}
	if o.QueryAppend != nil {
		s.QueryAppend = *o.QueryAppend
	}
	if o.CustomFilters != nil {
		s.CustomFilters = append([]string(nil), o.CustomFilters...)
	}
	if o.CustomFacets != nil {
		s.CustomFacets = append([]facet.CustomFacet(nil), o.CustomFacets...)
	}
	if o.FacetFields != nil {
		s.FacetFields = append([]facet.Field(nil), o.FacetFields...)
	}
	if o.AggregationSize != nil {
		s.AggregationSize = *o.AggregationSize
	}
	if o.Highlight != nil {
		s.Highlight = mergeHighlight(s.Highlight, *o.Highlight)
	}
	if o.Profile != nil {
		s.Profile = mergeProfile(s.Profile, *o.Profile)
	}
	return s
}

// mergeHighlight applies the non-zero fields of o.
func mergeHighlight(h, o Highlight) Highlight {
	if o.Field != "" {
		h.Field = o.Field
	}
	if o.TitleField != "" {
		h.TitleField = o.TitleField
	}
	if o.FragmentSize != 0 {
		h.FragmentSize = o.FragmentSize
	}
	if o.Fragments != 0 {
		h.Fragments = o.Fragments
	}
	if o.PreTag != "" {
		h.PreTag = o.PreTag
	}
	if o.PostTag != "" {
		h.PostTag = o.PostTag
	}
	return h
}

func mergeProfile(p profile.Profile, o ProfileOverrides) profile.Profile {
	if o.Fields != nil {
		p.Fields = append([]profile.FieldWeight(nil), o.Fields...)
	}
	if o.NearSlop != nil {
		p.NearSlop = *o.NearSlop
	}
	if o.StopWords != nil {
		p.StopWords = append([]string(nil), o.StopWords...)
	}
	if o.Longevity != nil {
		p.Longevity = append([]profile.Band(nil), o.Longevity...)
	}
	if o.DefaultBand != nil {
		p.DefaultBand = *o.DefaultBand
	}
	if o.Interestingness != nil {
		p.Interestingness = append([]profile.Tier(nil), o.Interestingness...)
	}
	if o.Featured != nil {
		p.Featured = *o.Featured
	}
	if o.Secondary != nil {
		p.Secondary = *o.Secondary
	}
	return p
}

// clone copies the slices and maps shared with the receiver.
func (s Settings) clone() Settings {
	c := s
	c.DefaultFilters = append([]Filter(nil), s.DefaultFilters...)
	c.AllowedTypes = append([]string(nil), s.AllowedTypes...)
	c.CustomFilters = append([]string(nil), s.CustomFilters...)
	c.CustomFacets = append([]facet.CustomFacet(nil), s.CustomFacets...)
	c.FacetFields = append([]facet.Field(nil), s.FacetFields...)
	if s.VisibleFilters != nil {
		c.VisibleFilters = make(map[string]bool, len(s.VisibleFilters))
		for k, v := range s.VisibleFilters {
			c.VisibleFilters[k] = v
		}
	}
	c.Profile.Fields = append([]profile.FieldWeight(nil), s.Profile.Fields...)
	c.Profile.StopWords = append([]string(nil), s.Profile.StopWords...)
	c.Profile.Longevity = append([]profile.Band(nil), s.Profile.Longevity...)
	c.Profile.Interestingness = append([]profile.Tier(nil), s.Profile.Interestingness...)
	return c
}
