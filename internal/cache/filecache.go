// Package cache holds the two persistence-backed caches of the pipeline:
// the file cache that skips unchanged source files between runs, and the
// append-only embedding cache that makes re-embedding idempotent.
//
// Both are explicit state objects: load at the start of a run, mutate in
// memory, persist at the end. Nothing in here is a process-wide singleton,
// so several universes can be built in one process without bleeding into
// each other.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zellmx/docindex/pkg/types"
)

// FileEntry records one processed source file.
type FileEntry struct {
	SHA256      string `json:"sha256"`
	ProcessedAt string `json:"processed_at"`
	Path        string `json:"path"`
}

// FileCache tracks which source files have already been indexed, keyed by
// the file's path relative to the input directory.
type FileCache struct {
	path    string
	entries map[string]FileEntry
}

// FileCachePath returns the on-disk location of a universe's file cache.
func FileCachePath(outDir, universe string) string {
	return filepath.Join(outDir, types.NormalizeUniverse(universe)+"_file_cache.json")
}

// LoadFileCache reads a universe's file cache. A missing file yields an
// empty cache; a corrupt one is an error so a bad run does not silently
// reprocess everything.
func LoadFileCache(outDir, universe string) (*FileCache, error) {
	fc := &FileCache{
		path:    FileCachePath(outDir, universe),
		entries: map[string]FileEntry{},
	}
	data, err := os.ReadFile(fc.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fc, nil
		}
		return nil, fmt.Errorf("read file cache: %w", err)
	}
	if err := json.Unmarshal(data, &fc.entries); err != nil {
		return nil, fmt.Errorf("parse file cache %s: %w", fc.path, err)
	}
	return fc, nil
}

// Path returns where the cache persists.
func (c *FileCache) Path() string { return c.path }

// Len returns the number of tracked files.
func (c *FileCache) Len() int { return len(c.entries) }

// IsProcessed reports whether key was already indexed with exactly this
// content hash.
func (c *FileCache) IsProcessed(key, sha256Hex string) bool {
	e, ok := c.entries[key]
	return ok && e.SHA256 != "" && e.SHA256 == sha256Hex
}

// MarkProcessed records that key was indexed with the given content hash.
// The change is in memory only until Save.
func (c *FileCache) MarkProcessed(key, sha256Hex string) {
	c.entries[key] = FileEntry{
		SHA256:      sha256Hex,
		ProcessedAt: time.Now().UTC().Format(time.RFC3339),
		Path:        key,
	}
}

// Save persists the cache, creating the output directory if needed.
func (c *FileCache) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0o644)
}
