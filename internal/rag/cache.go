package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 1024

// cachedEmbedder wraps an Embedder with an LRU of previously computed
// vectors. Indexing and querying often embed the same fragment text,
// so repeat calls should not pay for another network round trip.
type cachedEmbedder struct {
	inner Embedder
	cache *lru.Cache[string, []float32]
}

// NewCachedEmbedder wraps inner with an LRU cache of size entries.
func NewCachedEmbedder(inner Embedder, size int) (Embedder, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &cachedEmbedder{inner: inner, cache: cache}, nil
}

func (c *cachedEmbedder) ModelID() string {
	return c.inner.ModelID()
}

func (c *cachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)
	if vector, ok := c.cache.Get(key); ok {
		return vector, nil
	}

	vector, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.cache.Add(key, vector)
	return vector, nil
}

// key includes the model so a cache survives a model switch without
// serving vectors from the wrong embedding space.
func (c *cachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(c.inner.ModelID() + "\x00" + text))
	return hex.EncodeToString(sum[:])
}
