package embedder

import (
	"context"
	"errors"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/zellmx/docindex/pkg/types"
)

// Common errors
var (
	ErrEmptyText      = errors.New("text cannot be empty")
	ErrProviderFailed = errors.New("embedding provider failed")
	ErrNoAPIKey       = errors.New("embedding API key not set")
)

// Embedder generates one vector per text. Implementations must be safe for
// concurrent use.
type Embedder interface {
	// Embed returns the raw (not necessarily unit-length) vector for text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Model returns the model name, for run summaries.
	Model() string

	// Close releases any resources held by the embedder.
	Close() error
}

// Normalize scales a vector to unit length. The zero vector is returned
// unchanged. Stored vectors are raw; every consumer normalizes on read so
// inner product equals cosine similarity.
func Normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	norm := float32(math.Sqrt(sum))
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = v / norm
	}
	return out
}

// Cache is an in-memory LRU front for an Embedder, keyed by text
// fingerprint. It sits in front of the durable JSONL cache and only saves
// repeated embeds within one process.
type Cache struct {
	cache *lru.Cache[string, []float32]
}

// NewCache creates an LRU cache holding up to maxLen vectors.
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = 10000
	}
	c, err := lru.New[string, []float32](maxLen)
	if err != nil {
		c, _ = lru.New[string, []float32](10000)
	}
	return &Cache{cache: c}
}

// Get returns a copy of the cached vector for text, if present.
func (c *Cache) Get(text string) ([]float32, bool) {
	vec, ok := c.cache.Get(types.Fingerprint(text))
	if !ok {
		return nil, false
	}
	out := make([]float32, len(vec))
	copy(out, vec)
	return out, true
}

// Set stores a vector for text with LRU eviction.
func (c *Cache) Set(text string, vec []float32) {
	c.cache.Add(types.Fingerprint(text), vec)
}

// Len returns the current cache size.
func (c *Cache) Len() int { return c.cache.Len() }

// Cached wraps an Embedder with an in-memory LRU cache.
type Cached struct {
	inner Embedder
	cache *Cache
}

// WithCache fronts e with an LRU cache of up to maxLen vectors.
func WithCache(e Embedder, maxLen int) *Cached {
	return &Cached{inner: e, cache: NewCache(maxLen)}
}

func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := c.cache.Get(text); ok {
		return vec, nil
	}
	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set(text, vec)
	return vec, nil
}

func (c *Cached) Model() string { return c.inner.Model() }

func (c *Cached) Close() error { return c.inner.Close() }
