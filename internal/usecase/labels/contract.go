package labels

import "context"

// VocabularyLookup resolves a taxonomy term id to its label.
type VocabularyLookup interface {
	Label(ctx context.Context, vocabulary, id string) (string, error)
}

// CachedLookup is implemented by lookups that can bulk-read labels they
// already hold. Ids missing from the result go through Label.
type CachedLookup interface {
	Cached(ctx context.Context, vocabulary string, ids []string) map[string]string
}
