package index

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zellmx/docindex/pkg/types"
)

func TestOpenMissingGivesEmptyIndex(t *testing.T) {
	ix, err := Open(t.TempDir(), "docs_org")
	require.NoError(t, err)
	assert.Equal(t, 0, ix.Count())
	assert.Equal(t, 0, ix.Dim())
}

func TestAppendSaveReload(t *testing.T) {
	dir := t.TempDir()

	ix, err := Open(dir, "docs_org")
	require.NoError(t, err)
	require.NoError(t, ix.Append([]float32{1, 0, 0}, []float32{0, 1, 0}))
	require.NoError(t, ix.Save())

	ix2, err := Open(dir, "docs_org")
	require.NoError(t, err)
	assert.Equal(t, 2, ix2.Count())
	assert.Equal(t, 3, ix2.Dim())

	// incremental append on the reopened index
	require.NoError(t, ix2.Append([]float32{0, 0, 1}))
	require.NoError(t, ix2.Save())

	ix3, err := Open(dir, "docs_org")
	require.NoError(t, err)
	assert.Equal(t, 3, ix3.Count())

	hits, err := ix3.Search([]float32{0, 0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 2, hits[0].Row)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
}

func TestTruncateDropsTrailingRows(t *testing.T) {
	dir := t.TempDir()

	ix, err := Open(dir, "docs_org")
	require.NoError(t, err)
	require.NoError(t, ix.Append([]float32{1, 0}, []float32{0, 1}, []float32{1, 1}))
	require.NoError(t, ix.Save())

	require.NoError(t, ix.Truncate(1))
	assert.Equal(t, 1, ix.Count())

	ix2, err := Open(dir, "docs_org")
	require.NoError(t, err)
	require.Equal(t, 1, ix2.Count())
	assert.Equal(t, 2, ix2.Dim())

	// appends after a truncate extend from the shortened tail
	require.NoError(t, ix.Append([]float32{0, 1}))
	require.NoError(t, ix.Save())

	ix3, err := Open(dir, "docs_org")
	require.NoError(t, err)
	require.Equal(t, 2, ix3.Count())
	hits, err := ix3.Search([]float32{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 1, hits[0].Row)
}

func TestTruncateLargerThanCountIsNoop(t *testing.T) {
	ix, err := Open(t.TempDir(), "docs_org")
	require.NoError(t, err)
	require.NoError(t, ix.Append([]float32{1, 0}))
	require.NoError(t, ix.Truncate(5))
	assert.Equal(t, 1, ix.Count())
}

func TestAppendDimMismatch(t *testing.T) {
	ix, err := Open(t.TempDir(), "docs_org")
	require.NoError(t, err)
	require.NoError(t, ix.Append([]float32{1, 0}))

	err = ix.Append([]float32{1, 0, 0})
	assert.ErrorIs(t, err, types.ErrDimMismatch)
}

func TestSearchRanking(t *testing.T) {
	ix, err := Open(t.TempDir(), "docs_org")
	require.NoError(t, err)
	require.NoError(t, ix.Append(
		[]float32{1, 0},
		[]float32{0.6, 0.8},
		[]float32{0, 1},
	))

	hits, err := ix.Search([]float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, 0, hits[0].Row)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.Equal(t, 1, hits[1].Row)
	assert.InDelta(t, 0.6, hits[1].Score, 1e-6)
}

func TestSearchQueryDimMismatch(t *testing.T) {
	ix, err := Open(t.TempDir(), "docs_org")
	require.NoError(t, err)
	require.NoError(t, ix.Append([]float32{1, 0}))

	_, err = ix.Search([]float32{1, 0, 0}, 5)
	assert.ErrorIs(t, err, types.ErrDimMismatch)
}

func TestSearchTopKLargerThanIndex(t *testing.T) {
	ix, err := Open(t.TempDir(), "docs_org")
	require.NoError(t, err)
	require.NoError(t, ix.Append([]float32{1, 0}))

	hits, err := ix.Search([]float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestOpenBadMagic(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(Path(dir, "docs_org"), []byte("not an index file"), 0o644))

	_, err := Open(dir, "docs_org")
	assert.Error(t, err)
}

func TestOpenDropsTornTrailingRow(t *testing.T) {
	dir := t.TempDir()

	ix, err := Open(dir, "docs_org")
	require.NoError(t, err)
	require.NoError(t, ix.Append([]float32{1, 0}, []float32{0, 1}))
	require.NoError(t, ix.Save())

	// truncate mid-row to simulate a crashed writer
	info, err := os.Stat(Path(dir, "docs_org"))
	require.NoError(t, err)
	require.NoError(t, os.Truncate(Path(dir, "docs_org"), info.Size()-3))

	ix2, err := Open(dir, "docs_org")
	require.NoError(t, err)
	assert.Equal(t, 1, ix2.Count())
}
