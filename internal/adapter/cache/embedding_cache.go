package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/domain"
	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/port"
)

// EmbeddingCache is a size-bounded LRU of embeddings with a TTL.
type EmbeddingCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	order   []string // least recently used first
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	vector    []float32
	timestamp time.Time
}

func NewEmbeddingCache(maxSize int, ttl time.Duration) *EmbeddingCache {
	if maxSize <= 0 {
		maxSize = 256
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &EmbeddingCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

func cacheKey(model, text string) string {
	hash := sha256.Sum256([]byte(model + "\x00" + text))
	return hex.EncodeToString(hash[:16])
}

func (c *EmbeddingCache) Get(model, text string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(model, text)
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.timestamp) > c.ttl {
		delete(c.entries, key)
		c.removeFromOrder(key)
		return nil, false
	}

	c.moveToEnd(key)
	return entry.vector, true
}

func (c *EmbeddingCache) Put(model, text string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(model, text)
	if _, ok := c.entries[key]; ok {
		c.moveToEnd(key)
	} else {
		if len(c.entries) >= c.maxSize {
			c.evictOldest()
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = &cacheEntry{vector: vector, timestamp: c.now()}
}

func (c *EmbeddingCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *EmbeddingCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *EmbeddingCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *EmbeddingCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// CachedEmbedder serves repeated query embeddings from a cache. Document
// embeddings always go to the wrapped embedder.
type CachedEmbedder struct {
	port.Embedder
	cache *EmbeddingCache
}

func NewCachedEmbedder(embedder port.Embedder, cache *EmbeddingCache) *CachedEmbedder {
	return &CachedEmbedder{Embedder: embedder, cache: cache}
}

func (e *CachedEmbedder) Embed(ctx context.Context, text string, intent domain.Intent) ([]float32, error) {
	if intent != domain.IntentQuery {
		return e.Embedder.Embed(ctx, text, intent)
	}

	model := e.Embedder.ModelName()
	if vec, ok := e.cache.Get(model, text); ok {
		return vec, nil
	}

	vec, err := e.Embedder.Embed(ctx, text, intent)
	if err != nil {
		return nil, err
	}
	e.cache.Put(model, text, vec)
	return vec, nil
}
