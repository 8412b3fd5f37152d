package embedder

import (
	"context"
	"crypto/sha256"
	"strings"
)

// Mock is a deterministic embedder for tests: the vector is derived from a
// hash of the normalized text, so equal texts embed identically with no
// network involved. Directional similarity is meaningless, but dimensions,
// determinism, and caching behavior are exercised for real.
type Mock struct {
	Dim int
	// Err, when set, is returned by every Embed call.
	Err error
	// Calls counts Embed invocations.
	Calls int
}

// NewMock returns a mock embedder producing vectors of dim components.
func NewMock(dim int) *Mock {
	if dim <= 0 {
		dim = 8
	}
	return &Mock{Dim: dim}
}

func (m *Mock) Embed(_ context.Context, text string) ([]float32, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	seed := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(text))))
	vec := make([]float32, m.Dim)
	for i := range vec {
		b := seed[i%len(seed)]
		vec[i] = (float32(b) - 127.5) / 127.5
	}
	return vec, nil
}

func (m *Mock) Model() string { return "mock" }

func (m *Mock) Close() error { return nil }
