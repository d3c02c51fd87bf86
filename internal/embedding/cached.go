package embedding

import (
	"context"

	"AIAvatar/pkg/util"
)

// Cached memoizes Embed calls with an LRU cache keyed by the input text.
// Providers are deterministic for a fixed model version, so a cached vector
// is as good as a fresh one. Errors are never cached.
type Cached struct {
	inner Embedding
	lru   *util.LRUCache[string, []float32]
}

// NewCached wraps inner with an LRU of at most size entries.
func NewCached(inner Embedding, size int) (*Cached, error) {
	lru, err := util.NewWithConfig(util.CacheConfig[string, []float32]{Capacity: size})
	if err != nil {
		return nil, err
	}
	return &Cached{inner: inner, lru: lru}, nil
}

// Embed returns the memoized vector for text, delegating on a miss.
func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := c.lru.Get(text); ok {
		return vec, nil
	}
	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.lru.Put(text, vec, 1)
	return vec, nil
}

// EmbedBatch delegates to the wrapped provider. Batches are only used by the
// offline builder, where memoization buys nothing.
func (c *Cached) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return c.inner.EmbedBatch(ctx, texts)
}

var _ Embedding = (*Cached)(nil)
