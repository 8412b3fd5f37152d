package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// buildIndexTool returns the tool definition for build_index.
func buildIndexTool() mcp.Tool {
	return mcp.Tool{
		Name:        "build_index",
		Description: "Incrementally index the documents of a universe: extract, chunk, embed, and append to its vector index",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"universe": map[string]interface{}{
					"type":        "string",
					"description": "Universe name (e.g. docs_org, docs_iso, meetings_weekly, user_guides)",
				},
				"input_dir": map[string]interface{}{
					"type":        "string",
					"description": "Directory containing the source documents (.txt, .md, .docx)",
				},
				"chunk_tokens": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum tokens per chunk",
					"default":     650,
				},
				"overlap_tokens": map[string]interface{}{
					"type":        "integer",
					"description": "Token overlap between consecutive chunks",
					"default":     120,
				},
				"top_level_only": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, do not descend into subdirectories",
					"default":     false,
				},
				"max_files": map[string]interface{}{
					"type":        "integer",
					"description": "Limit the number of files processed this run (0 = no limit)",
					"default":     0,
				},
			},
			Required: []string{"universe", "input_dir"},
		},
	}
}

// searchDocsTool returns the tool definition for search_docs.
func searchDocsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_docs",
		Description: "Semantic search over an indexed universe; returns ranked hits with citation metadata but no chunk text",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"universe": map[string]interface{}{
					"type":        "string",
					"description": "Universe to search",
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Free-text query",
				},
				"top_k": map[string]interface{}{
					"type":        "integer",
					"description": "Number of results to return (1-50)",
					"default":     5,
					"minimum":     1,
					"maximum":     50,
				},
				"use_cache": map[string]interface{}{
					"type":        "boolean",
					"description": "Serve repeated queries from the short-lived result cache; set false right after a rebuild",
					"default":     true,
				},
			},
			Required: []string{"universe", "query"},
		},
	}
}

// getDocContextTool returns the tool definition for get_doc_context.
func getDocContextTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_doc_context",
		Description: "Fetch the full text of chunks by chunk_ids (with adjacent expansion) or by doc_id; guides universe expands to the whole document",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"universe": map[string]interface{}{
					"type":        "string",
					"description": "Universe the chunks belong to",
				},
				"chunk_ids": map[string]interface{}{
					"type":        "array",
					"description": "Chunk ids to fetch",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
				"doc_id": map[string]interface{}{
					"type":        "string",
					"description": "Fetch the first chunks of this document instead of explicit chunk ids",
				},
				"max_chunks": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum chunks returned for a doc_id fetch",
					"default":     6,
				},
				"expand_adjacent": map[string]interface{}{
					"type":        "boolean",
					"description": "Include the previous and next chunk of the same document for each chunk id",
					"default":     true,
				},
			},
			Required: []string{"universe"},
		},
	}
}
