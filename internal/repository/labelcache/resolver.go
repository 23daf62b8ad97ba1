package labelcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/facetsearch/internal/db"
)

const (
	keyPrefix = "facetsearch:label:"
	// fillTimeout bounds a shared upstream lookup, which outlives the
	// caller that started it.
	fillTimeout = 10 * time.Second
)

// store is the consumer interface for the label cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	GetMulti(ctx context.Context, keys []string) ([][]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Lookup resolves a taxonomy term to its label.
type Lookup interface {
	Label(ctx context.Context, vocabulary, id string) (string, error)
}

// CachedResolver caches taxonomy labels in a key-value store. Concurrent
// misses for the same term share a single upstream lookup.
type CachedResolver struct {
	inner      Lookup
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
	group      singleflight.Group
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner Lookup,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedResolver{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Label returns a cached label or looks it up through the inner resolver.
func (c *CachedResolver) Label(ctx context.Context, vocabulary, id string) (string, error) {
	key := cacheKey(vocabulary, id)

	if label, ok := c.get(ctx, key); ok {
		c.incCache("hit")
		return label, nil
	}
	c.incCache("miss")

	ch := c.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fillTimeout)
		defer cancel()
		label, err := c.inner.Label(fctx, vocabulary, id)
		if err != nil {
			return "", err
		}
		c.put(fctx, key, label)
		return label, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", fmt.Errorf("lookup label: %w", res.Err)
		}
		if res.Shared {
			c.logger.Debug("label lookup shared", zap.String("key", key))
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", fmt.Errorf("lookup label: %w", ctx.Err())
	}
}

// Cached returns the labels of ids already in the cache, keyed by id.
// Store failures yield an empty result.
func (c *CachedResolver) Cached(ctx context.Context, vocabulary string, ids []string) map[string]string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cacheKey(vocabulary, id)
	}
	values, err := c.store.GetMulti(ctx, keys)
	if err != nil {
		c.logger.Warn("Failed to get cached labels", zap.String("vocabulary", vocabulary), zap.Error(err))
		return map[string]string{}
	}
	out := make(map[string]string, len(ids))
	for i, v := range values {
		if i < len(ids) && len(v) > 0 {
			out[ids[i]] = string(v)
			c.incCache("hit")
		}
	}
	return out
}

func (c *CachedResolver) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedResolver) get(ctx context.Context, key string) (string, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached label", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	if len(data) == 0 {
		return "", false
	}
	return string(data), true
}

func (c *CachedResolver) put(ctx context.Context, key, label string) {
	if err := c.store.SetWithTTL(ctx, key, []byte(label), c.ttl); err != nil {
		c.logger.Warn("Failed to cache label", zap.String("key", key), zap.Error(err))
	}
}

func cacheKey(vocabulary, id string) string {
	return keyPrefix + vocabulary + ":" + id
}
