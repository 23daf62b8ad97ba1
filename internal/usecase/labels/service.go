package labels

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/facetsearch/internal/domain"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/facet"
)

const defaultConcurrency = 8

var languageNames = map[string]string{
	"ar": "Arabic",
	"de": "German",
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"it": "Italian",
	"ja": "Japanese",
	"pt": "Portuguese",
	"ru": "Russian",
	"zh": "Chinese",
}

// LanguageName returns the display name of a language code, or the code itself.
func LanguageName(code string) string {
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return code
}

// Label is a facet value paired with its display label.
type Label struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Service resolves raw facet values to human-readable labels.
type Service struct {
	fields      []facet.Field
	lookup      VocabularyLookup
	logger      *zap.Logger
	concurrency int
}

// New creates a Service. lookup can be nil, in which case vocabulary
// values resolve to themselves.
func New(fields []facet.Field, lookup VocabularyLookup, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		fields:      fields,
		lookup:      lookup,
		logger:      logger,
		concurrency: defaultConcurrency,
	}
}

// Resolve returns the display label for one value of facetKey.
// Unknown labels fall back to the raw value; only context errors are returned.
func (s *Service) Resolve(ctx context.Context, facetKey, value string) (string, error) {
	if value == "" {
		return "", nil
	}

	f, ok := facet.FieldByKey(s.fields, facetKey)
	switch {
	case !ok:
		return value, nil
	case f.IsYear():
		return value, nil
	case f.Key == facet.KeyLanguage:
		return LanguageName(value), nil
	case f.Vocabulary == "" || s.lookup == nil:
		return value, nil
	}

	label, err := s.lookup.Label(ctx, f.Vocabulary, value)
	switch {
	case err == nil && label != "":
		return label, nil
	case err == nil, errors.Is(err, domain.ErrLabelNotFound):
		return value, nil
	case ctx.Err() != nil:
		return "", fmt.Errorf("resolve %s/%s: %w", facetKey, value, ctx.Err())
	default:
		s.logger.Warn("Label lookup failed, using raw value",
			zap.String("facet", facetKey),
			zap.String("value", value),
			zap.Error(err),
		)
		return value, nil
	}
}

// ResolveAll resolves values concurrently, preserving input order.
// Labels the lookup already caches are read in one batch first.
func (s *Service) ResolveAll(ctx context.Context, facetKey string, values []string) ([]Label, error) {
	out := make([]Label, len(values))
	cached := s.cached(ctx, facetKey, values)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, v := range values {
		if label, ok := cached[v]; ok && v != "" {
			out[i] = Label{Value: v, Label: label}
			continue
		}
		g.Go(func() error {
			label, err := s.Resolve(gctx, facetKey, v)
			if err != nil {
				return err
			}
			out[i] = Label{Value: v, Label: label}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) cached(ctx context.Context, facetKey string, values []string) map[string]string {
	bulk, ok := s.lookup.(CachedLookup)
	if !ok || len(values) == 0 {
		return nil
	}
	f, ok := facet.FieldByKey(s.fields, facetKey)
	if !ok || f.Vocabulary == "" || f.IsYear() || f.Key == facet.KeyLanguage {
		return nil
	}
	return bulk.Cached(ctx, f.Vocabulary, values)
}
