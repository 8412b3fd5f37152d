package types

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// Fingerprint returns a stable hash of text that is insensitive to case and
// whitespace layout. It keys the embedding cache and deduplicates blocks, so
// its exact normalization (trim, lowercase, collapse runs of whitespace) is
// part of the on-disk cache format.
func Fingerprint(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = whitespaceRE.ReplaceAllString(s, " ")
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// FileSHA256 returns the hex SHA-256 of a file's contents.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// DocID derives a document id from a file's hex SHA-256: the first 12
// characters. Identical file contents always map to the same doc id.
func DocID(sha256Hex string) string {
	if len(sha256Hex) < 12 {
		return sha256Hex
	}
	return sha256Hex[:12]
}

// NewChunkID builds the id for the n-th chunk of a document.
func NewChunkID(docID string, n int) string {
	return fmt.Sprintf("%s_%d", docID, n)
}

// CacheKey builds the embedding-cache key for a chunk's text.
func CacheKey(chunkID, text string) string {
	return chunkID + "|" + Fingerprint(text)
}
