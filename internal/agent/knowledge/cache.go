package knowledge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// EmbeddingCache stores query embeddings. Misses and cache failures are
// indistinguishable to callers; the cache never changes retrieval results.
type EmbeddingCache interface {
	Get(ctx context.Context, key string) ([]float32, bool)
	Set(ctx context.Context, key string, vector []float32)
}

// CacheKey identifies the embedding of text under a model and dimension.
func CacheKey(model string, dimension int, text string) string {
	sum := sha256.Sum256([]byte(text))
	return model + ":" + strconv.Itoa(dimension) + ":" + hex.EncodeToString(sum[:])
}

// LRUCache is an in-process embedding cache with expiry.
type LRUCache struct {
	lru *expirable.LRU[string, []float32]
}

func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	if size <= 0 {
		size = 1024
	}
	return &LRUCache{lru: expirable.NewLRU[string, []float32](size, nil, ttl)}
}

func (c *LRUCache) Get(_ context.Context, key string) ([]float32, bool) {
	return c.lru.Get(key)
}

func (c *LRUCache) Set(_ context.Context, key string, vector []float32) {
	c.lru.Add(key, vector)
}

// Len returns the number of cached entries.
func (c *LRUCache) Len() int {
	return c.lru.Len()
}

var _ EmbeddingCache = (*LRUCache)(nil)
