package embedder

import (
	"context"
	"math"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	vec := Normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, vec[0], 1e-6)
	assert.InDelta(t, 0.8, vec[1], 1e-6)

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
}

func TestNormalizeZeroVector(t *testing.T) {
	vec := Normalize([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, vec)
}

func TestNormalizeIdempotent(t *testing.T) {
	once := Normalize([]float32{1, 2, 3})
	twice := Normalize(once)
	for i := range once {
		assert.InDelta(t, once[i], twice[i], 1e-6)
	}
}

func TestMockDeterminism(t *testing.T) {
	m := NewMock(16)
	ctx := context.Background()

	a, err := m.Embed(ctx, "hola mundo")
	require.NoError(t, err)
	b, err := m.Embed(ctx, "Hola  Mundo ")
	require.NoError(t, err)
	c, err := m.Embed(ctx, "otra cosa")
	require.NoError(t, err)

	require.Len(t, a, 16)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestMockRejectsEmptyText(t *testing.T) {
	m := NewMock(8)
	_, err := m.Embed(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestCachedEmbedderHitsOnce(t *testing.T) {
	m := NewMock(8)
	cached := WithCache(m, 100)
	ctx := context.Background()

	a, err := cached.Embed(ctx, "texto")
	require.NoError(t, err)
	b, err := cached.Embed(ctx, "texto")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 1, m.Calls)

	_, err = cached.Embed(ctx, "otro texto")
	require.NoError(t, err)
	assert.Equal(t, 2, m.Calls)
}

func TestCacheCopiesVectors(t *testing.T) {
	c := NewCache(10)
	c.Set("texto", []float32{1, 2, 3})

	got, ok := c.Get("texto")
	require.True(t, ok)
	got[0] = math.MaxFloat32

	again, ok := c.Get("texto")
	require.True(t, ok)
	assert.Equal(t, float32(1), again[0])
}

func TestRetryEmbedSucceedsAfterFailures(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, BaseDelay: 1, MaxDelay: 10, Multiplier: 2}
	attempts := 0

	got, err := retryEmbed(context.Background(), cfg, func() ([]float32, error) {
		attempts++
		if attempts < 3 {
			return nil, assert.AnError
		}
		return []float32{42}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []float32{42}, got)
	assert.Equal(t, 3, attempts)
}

func TestRetryEmbedExhausts(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 2, BaseDelay: 1, MaxDelay: 10, Multiplier: 2}

	_, err := retryEmbed(context.Background(), cfg, func() ([]float32, error) {
		return nil, assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestRetryEmbedStopsOnFinalAPIError(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 5, BaseDelay: 1, MaxDelay: 10, Multiplier: 2}
	attempts := 0

	_, err := retryEmbed(context.Background(), cfg, func() ([]float32, error) {
		attempts++
		return nil, &apiError{status: http.StatusBadRequest, body: "input too long"}
	})

	var ae *apiError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusBadRequest, ae.status)
	assert.Equal(t, 1, attempts, "client errors are not retried")
}

func TestRetryEmbedRetriesThrottling(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, BaseDelay: 1, MaxDelay: 10, Multiplier: 2}
	attempts := 0

	got, err := retryEmbed(context.Background(), cfg, func() ([]float32, error) {
		attempts++
		if attempts == 1 {
			return nil, &apiError{status: http.StatusTooManyRequests, body: "slow down"}
		}
		return []float32{1}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []float32{1}, got)
	assert.Equal(t, 2, attempts)
}

func TestRetryEmbedRespectsContext(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 5, BaseDelay: 1, MaxDelay: 10, Multiplier: 2}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := retryEmbed(ctx, cfg, func() ([]float32, error) {
		return nil, assert.AnError
	})
	assert.ErrorIs(t, err, context.Canceled)
}
