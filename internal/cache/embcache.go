package cache

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zellmx/docindex/pkg/types"
)

// embEntry is one line of the embedding cache log.
type embEntry struct {
	CacheKey  string    `json:"cache_key"`
	Embedding []float32 `json:"embedding"`
	Dim       int       `json:"dim"`
}

// EmbeddingCache is an append-only JSONL log of raw embedding vectors keyed
// by chunk id plus text fingerprint. A key is appended at most once and
// stays valid for the lifetime of the universe's data directory. Vectors
// are stored raw; callers re-normalize on every read.
type EmbeddingCache struct {
	path    string
	entries map[string][]float32
	file    *os.File
}

// EmbCachePath returns the on-disk location of a universe's embedding cache.
func EmbCachePath(outDir, universe string) string {
	return filepath.Join(outDir, types.NormalizeUniverse(universe)+"_emb_cache.jsonl")
}

// LoadEmbeddingCache reads a universe's embedding cache into memory. Blank
// lines are skipped; a torn trailing line from an interrupted run is
// dropped rather than failing the load.
func LoadEmbeddingCache(outDir, universe string) (*EmbeddingCache, error) {
	c := &EmbeddingCache{
		path:    EmbCachePath(outDir, universe),
		entries: map[string][]float32{},
	}
	f, err := os.Open(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("read embedding cache: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e embEntry
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		if e.CacheKey != "" && len(e.Embedding) > 0 {
			c.entries[e.CacheKey] = e.Embedding
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan embedding cache %s: %w", c.path, err)
	}
	return c, nil
}

// Path returns where the cache persists.
func (c *EmbeddingCache) Path() string { return c.path }

// Len returns the number of cached vectors.
func (c *EmbeddingCache) Len() int { return len(c.entries) }

// Get returns the raw cached vector for key, or nil.
func (c *EmbeddingCache) Get(key string) []float32 {
	return c.entries[key]
}

// Append stores a vector under key and writes it through to the log
// immediately, so an interrupted run keeps every embedding it paid for.
func (c *EmbeddingCache) Append(key string, vec []float32) error {
	if _, ok := c.entries[key]; ok {
		return nil
	}
	if c.file == nil {
		if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
			return err
		}
		f, err := os.OpenFile(c.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open embedding cache: %w", err)
		}
		c.file = f
	}
	line, err := json.Marshal(embEntry{CacheKey: key, Embedding: vec, Dim: len(vec)})
	if err != nil {
		return err
	}
	if _, err := c.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append embedding cache: %w", err)
	}
	c.entries[key] = vec
	return nil
}

// Close releases the append handle, if any.
func (c *EmbeddingCache) Close() error {
	if c.file == nil {
		return nil
	}
	err := c.file.Close()
	c.file = nil
	return err
}
