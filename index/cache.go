package index

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

const cacheCapacity = 10000

// Cache memoises embeddings by text with TTL-based expiration.
// Source phrases and recurring variations are embedded once per TTL.
type Cache struct {
	embedder TextEmbedder
	cache    *ttlcache.Cache[string, []float32]
}

// NewCache wraps embedder with a TTL cache.
func NewCache(embedder TextEmbedder, ttl time.Duration) *Cache {
	c := ttlcache.New[string, []float32](
		ttlcache.WithTTL[string, []float32](ttl),
		ttlcache.WithCapacity[string, []float32](cacheCapacity),
	)
	go c.Start()
	return &Cache{embedder: embedder, cache: c}
}

// Embed returns the cached vector for text, embedding it on a miss.
func (c *Cache) Embed(ctx context.Context, text string) ([]float32, error) {
	if item := c.cache.Get(text); item != nil {
		return item.Value(), nil
	}
	vec, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set(text, vec, ttlcache.DefaultTTL)
	return vec, nil
}

// Len returns the number of cached vectors.
func (c *Cache) Len() int { return c.cache.Len() }

// Close stops the cache expiration loop.
func (c *Cache) Close() {
	c.cache.Stop()
}
