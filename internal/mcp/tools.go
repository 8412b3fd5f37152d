package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zellmx/docindex/internal/indexer"
	"github.com/zellmx/docindex/internal/searcher"
)

// MCP error codes.
const (
	ErrorCodeInvalidParams = -32602 // invalid method parameters
	ErrorCodeInternalError = -32603 // internal JSON-RPC error
)

// handleBuildIndex handles the build_index tool invocation.
func (s *Server) handleBuildIndex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	universe, ok := args["universe"].(string)
	if !ok || universe == "" {
		return nil, missingParam("universe")
	}
	inputDir, ok := args["input_dir"].(string)
	if !ok || inputDir == "" {
		return nil, missingParam("input_dir")
	}
	if info, err := os.Stat(inputDir); err != nil || !info.IsDir() {
		return nil, newMCPError(ErrorCodeInvalidParams, "input_dir is not a readable directory", map[string]interface{}{
			"param": "input_dir",
			"value": inputDir,
		})
	}

	opts := indexer.Options{
		Universe:      universe,
		InputDir:      inputDir,
		OutDir:        s.cfg.DataDir,
		ChunkTokens:   getIntDefault(args, "chunk_tokens", s.cfg.Chunker.MaxTokens),
		OverlapTokens: getIntDefault(args, "overlap_tokens", s.cfg.Chunker.OverlapTokens),
		TopLevelOnly:  getBoolDefault(args, "top_level_only", false),
		MaxFiles:      getIntDefault(args, "max_files", 0),
		CatalogPath:   s.cfg.CatalogPath,
	}

	res, err := s.indexer.Build(ctx, opts)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "build failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	// cached search results predate the new rows
	s.searcher.FlushCache()
	return mcp.NewToolResultText(formatJSON(res)), nil
}

// handleSearchDocs handles the search_docs tool invocation.
func (s *Server) handleSearchDocs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	universe, ok := args["universe"].(string)
	if !ok || universe == "" {
		return nil, missingParam("universe")
	}
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, missingParam("query")
	}
	topK := getIntDefault(args, "top_k", searcher.DefaultTopK)
	if topK < 1 || topK > searcher.MaxTopK {
		return nil, newMCPError(ErrorCodeInvalidParams,
			fmt.Sprintf("top_k must be between 1 and %d", searcher.MaxTopK),
			map[string]interface{}{"param": "top_k", "value": topK})
	}

	res, err := s.searcher.Search(ctx, searcher.SearchRequest{
		Universe: universe,
		Query:    query,
		TopK:     topK,
		UseCache: getBoolDefault(args, "use_cache", true),
	})
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return mcp.NewToolResultText(formatJSON(res)), nil
}

// handleGetDocContext handles the get_doc_context tool invocation.
func (s *Server) handleGetDocContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	universe, ok := args["universe"].(string)
	if !ok || universe == "" {
		return nil, missingParam("universe")
	}
	chunkIDs := getStringSlice(args, "chunk_ids")
	docID := getStringDefault(args, "doc_id", "")
	if len(chunkIDs) == 0 && docID == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "provide chunk_ids or doc_id", nil)
	}

	res, err := s.searcher.GetContext(ctx, searcher.ContextRequest{
		Universe:       universe,
		ChunkIDs:       chunkIDs,
		DocID:          docID,
		MaxChunks:      getIntDefault(args, "max_chunks", searcher.DefaultMaxChunks),
		ExpandAdjacent: getBoolDefault(args, "expand_adjacent", true),
	})
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "context fetch failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return mcp.NewToolResultText(formatJSON(res)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error.
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{Code: code, Message: message, Data: data}
}

func missingParam(name string) error {
	return newMCPError(ErrorCodeInvalidParams, name+" parameter is required", map[string]interface{}{
		"param":  name,
		"reason": "missing or empty",
	})
}

// MCPError represents an MCP protocol error.
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON renders a tool result as indented JSON.
func formatJSON(data interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value.
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value. JSON
// numbers decode as float64.
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value.
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// getStringSlice extracts a string-array parameter, tolerating the
// []interface{} shape JSON decoding produces.
func getStringSlice(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
