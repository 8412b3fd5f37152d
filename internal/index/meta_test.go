package index

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zellmx/docindex/pkg/types"
)

func metaChunk(docID string, n int) *types.Chunk {
	return &types.Chunk{
		ChunkID:    types.NewChunkID(docID, n),
		Universe:   "docs_org",
		DocID:      docID,
		Title:      "doc.md",
		SourcePath: "in/doc.md",
		SHA256:     docID + "ffffffffffff",
		ChunkIndex: n,
		TokenStart: n * 100,
		TokenEnd:   (n + 1) * 100,
		Text:       fmt.Sprintf("texto %d", n),
	}
}

func TestMetaAppendSaveReload(t *testing.T) {
	dir := t.TempDir()

	m, err := OpenMeta(dir, "docs_org")
	require.NoError(t, err)
	m.Append(metaChunk("aaa111bbb222", 0), metaChunk("aaa111bbb222", 1))
	require.NoError(t, m.Save())

	// second save is a no-op, not a duplicate write
	require.NoError(t, m.Save())

	m2, err := OpenMeta(dir, "docs_org")
	require.NoError(t, err)
	assert.Equal(t, 2, m2.Count())

	c := m2.At(1)
	require.NotNil(t, c)
	assert.Equal(t, "aaa111bbb222_1", c.ChunkID)
	assert.Equal(t, 1, c.ChunkIndex)
	assert.Equal(t, "texto 1", c.Text)

	assert.True(t, m2.Has("aaa111bbb222_0"))
	assert.Nil(t, m2.At(99))
	assert.Nil(t, m2.ByID("nope"))
}

func TestMetaIncrementalAppend(t *testing.T) {
	dir := t.TempDir()

	m, err := OpenMeta(dir, "docs_org")
	require.NoError(t, err)
	m.Append(metaChunk("aaa111bbb222", 0))
	require.NoError(t, m.Save())

	m2, err := OpenMeta(dir, "docs_org")
	require.NoError(t, err)
	m2.Append(metaChunk("ccc333ddd444", 0))
	require.NoError(t, m2.Save())

	m3, err := OpenMeta(dir, "docs_org")
	require.NoError(t, err)
	require.Equal(t, 2, m3.Count())
	assert.Equal(t, "aaa111bbb222_0", m3.At(0).ChunkID)
	assert.Equal(t, "ccc333ddd444_0", m3.At(1).ChunkID)
}

func TestMetaDocChunksOrdered(t *testing.T) {
	m, err := OpenMeta(t.TempDir(), "docs_org")
	require.NoError(t, err)
	m.Append(metaChunk("aaa111bbb222", 0), metaChunk("eee555fff666", 0), metaChunk("aaa111bbb222", 1))

	chunks := m.DocChunks("aaa111bbb222")
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, 1, chunks[1].ChunkIndex)
}

func TestMetaMalformedLineFails(t *testing.T) {
	dir := t.TempDir()
	content := `{"chunk_id":"a_0","universe":"docs_org","doc_id":"a"}` + "\n" + "{broken\n"
	require.NoError(t, os.WriteFile(MetaPath(dir, "docs_org"), []byte(content), 0o644))

	_, err := OpenMeta(dir, "docs_org")
	assert.Error(t, err)
}

func TestCheckAlignment(t *testing.T) {
	dir := t.TempDir()

	ix, err := Open(dir, "docs_org")
	require.NoError(t, err)
	m, err := OpenMeta(dir, "docs_org")
	require.NoError(t, err)

	require.NoError(t, CheckAlignment(ix, m))

	require.NoError(t, ix.Append([]float32{1, 0}))
	assert.Error(t, CheckAlignment(ix, m))

	m.Append(metaChunk("aaa111bbb222", 0))
	assert.NoError(t, CheckAlignment(ix, m))
}
