package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zellmx/docindex/internal/chunker"
	"github.com/zellmx/docindex/internal/config"
	"github.com/zellmx/docindex/internal/embedder"
	"github.com/zellmx/docindex/internal/index"
	"github.com/zellmx/docindex/internal/indexer"
	"github.com/zellmx/docindex/internal/log"
	"github.com/zellmx/docindex/internal/searcher"
	"github.com/zellmx/docindex/pkg/types"
)

func newTestServer(t *testing.T) (*Server, *embedder.Mock) {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()

	emb := embedder.NewMock(8)
	logger := log.NewNop()
	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		cfg:      cfg,
		indexer:  indexer.New(emb, chunker.NewWordTokenizer(), logger),
		searcher: searcher.New(cfg.DataDir, emb, logger),
		emb:      emb,
		logger:   logger,
	}
	return s, emb
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestHandleBuildIndexThenSearch(t *testing.T) {
	s, _ := newTestServer(t)
	inputDir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(inputDir, "politica.txt"),
		[]byte("las contraseñas deben rotarse cada noventa dias"), 0o644))

	buildRes, err := s.handleBuildIndex(context.Background(), callRequest(map[string]interface{}{
		"universe":  "docs_org",
		"input_dir": inputDir,
	}))
	require.NoError(t, err)

	var build types.BuildResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, buildRes)), &build))
	assert.True(t, build.OK)
	assert.Equal(t, 1, build.FilesProcessed)
	assert.Equal(t, 1, build.ChunksTotal)

	searchRes, err := s.handleSearchDocs(context.Background(), callRequest(map[string]interface{}{
		"universe": "docs_org",
		"query":    "rotacion de contraseñas",
		"top_k":    float64(3),
	}))
	require.NoError(t, err)

	var sr types.SearchResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, searchRes)), &sr))
	assert.True(t, sr.OK)
	require.Len(t, sr.Hits, 1)
	assert.Equal(t, "politica.txt", sr.Hits[0].Title)
}

func TestHandleSearchDocsCacheControl(t *testing.T) {
	s, mock := newTestServer(t)
	inputDir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(inputDir, "politica.txt"),
		[]byte("las claves se rotan cada trimestre"), 0o644))

	_, err := s.handleBuildIndex(context.Background(), callRequest(map[string]interface{}{
		"universe":  "docs_org",
		"input_dir": inputDir,
	}))
	require.NoError(t, err)
	base := mock.Calls

	args := map[string]interface{}{"universe": "docs_org", "query": "rotacion de claves"}
	_, err = s.handleSearchDocs(context.Background(), callRequest(args))
	require.NoError(t, err)
	assert.Equal(t, base+1, mock.Calls)

	_, err = s.handleSearchDocs(context.Background(), callRequest(args))
	require.NoError(t, err)
	assert.Equal(t, base+1, mock.Calls, "repeated query is served from the cache")

	args["use_cache"] = false
	_, err = s.handleSearchDocs(context.Background(), callRequest(args))
	require.NoError(t, err)
	assert.Equal(t, base+2, mock.Calls, "use_cache=false bypasses the cache")
}

func TestHandleBuildIndexFlushesSearchCache(t *testing.T) {
	s, _ := newTestServer(t)
	inputDir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(inputDir, "uno.txt"),
		[]byte("primer documento del repositorio"), 0o644))

	buildArgs := map[string]interface{}{"universe": "docs_org", "input_dir": inputDir}
	_, err := s.handleBuildIndex(context.Background(), callRequest(buildArgs))
	require.NoError(t, err)

	searchArgs := map[string]interface{}{"universe": "docs_org", "query": "documento"}
	res, err := s.handleSearchDocs(context.Background(), callRequest(searchArgs))
	require.NoError(t, err)
	var sr types.SearchResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &sr))
	require.Len(t, sr.Hits, 1)

	require.NoError(t, os.WriteFile(
		filepath.Join(inputDir, "dos.txt"),
		[]byte("segundo documento del repositorio"), 0o644))
	_, err = s.handleBuildIndex(context.Background(), callRequest(buildArgs))
	require.NoError(t, err)

	res, err = s.handleSearchDocs(context.Background(), callRequest(searchArgs))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &sr))
	assert.Len(t, sr.Hits, 2, "rebuild invalidates cached results")
}

func TestHandleBuildIndexValidation(t *testing.T) {
	s, _ := newTestServer(t)

	t.Run("missing universe", func(t *testing.T) {
		_, err := s.handleBuildIndex(context.Background(), callRequest(map[string]interface{}{
			"input_dir": t.TempDir(),
		}))
		var mcpErr *MCPError
		require.ErrorAs(t, err, &mcpErr)
		assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
	})

	t.Run("input_dir not a directory", func(t *testing.T) {
		_, err := s.handleBuildIndex(context.Background(), callRequest(map[string]interface{}{
			"universe":  "docs_org",
			"input_dir": filepath.Join(t.TempDir(), "missing"),
		}))
		var mcpErr *MCPError
		require.ErrorAs(t, err, &mcpErr)
		assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
	})
}

func TestHandleSearchDocsValidation(t *testing.T) {
	s, _ := newTestServer(t)

	t.Run("missing query", func(t *testing.T) {
		_, err := s.handleSearchDocs(context.Background(), callRequest(map[string]interface{}{
			"universe": "docs_org",
		}))
		var mcpErr *MCPError
		require.ErrorAs(t, err, &mcpErr)
		assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
	})

	t.Run("top_k out of range", func(t *testing.T) {
		_, err := s.handleSearchDocs(context.Background(), callRequest(map[string]interface{}{
			"universe": "docs_org",
			"query":    "algo",
			"top_k":    float64(500),
		}))
		var mcpErr *MCPError
		require.ErrorAs(t, err, &mcpErr)
		assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
	})
}

func TestHandleGetDocContext(t *testing.T) {
	s, _ := newTestServer(t)

	meta, err := index.OpenMeta(s.cfg.DataDir, "docs_org")
	require.NoError(t, err)
	for i, text := range []string{"primero", "segundo", "tercero"} {
		meta.Append(&types.Chunk{
			ChunkID:    types.NewChunkID("abcdefabcdef", i),
			Universe:   "docs_org",
			DocID:      "abcdefabcdef",
			Title:      "doc",
			SourcePath: "doc.txt",
			SHA256:     "abcdefabcdef",
			ChunkIndex: i,
			TokenEnd:   1,
			Text:       text,
		})
	}
	require.NoError(t, meta.Save())

	res, err := s.handleGetDocContext(context.Background(), callRequest(map[string]interface{}{
		"universe":  "docs_org",
		"chunk_ids": []interface{}{types.NewChunkID("abcdefabcdef", 1)},
	}))
	require.NoError(t, err)

	var cr types.ContextResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &cr))
	assert.True(t, cr.OK)
	require.Len(t, cr.Blocks, 3, "adjacent chunks are included by default")
	assert.Equal(t, "primero", cr.Blocks[0].Text)
	assert.Equal(t, "tercero", cr.Blocks[2].Text)
}

func TestHandleGetDocContextRequiresSelector(t *testing.T) {
	s, _ := newTestServer(t)
	_, err := s.handleGetDocContext(context.Background(), callRequest(map[string]interface{}{
		"universe": "docs_org",
	}))
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}
