package mcp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/zellmx/docindex/internal/chunker"
	"github.com/zellmx/docindex/internal/config"
	"github.com/zellmx/docindex/internal/embedder"
	"github.com/zellmx/docindex/internal/indexer"
	"github.com/zellmx/docindex/internal/searcher"
)

const (
	// ServerName is the MCP server name.
	ServerName = "docindex"
	// ServerVersion is the current server version.
	ServerVersion = "1.0.0"

	// embedderCacheSize bounds the in-memory embedding LRU shared by the
	// build and query paths.
	embedderCacheSize = 2048
)

// Server wraps the MCP server with application dependencies.
type Server struct {
	mcp      *server.MCPServer
	cfg      *config.Config
	indexer  *indexer.Indexer
	searcher *searcher.Searcher
	emb      embedder.Embedder
	logger   *slog.Logger
}

// NewServer wires the pipeline behind an MCP stdio server. The indexer and
// searcher share one embedder so the in-memory cache serves both paths.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	provider, err := embedder.NewOpenAI(cfg.Embedder)
	if err != nil {
		return nil, fmt.Errorf("initialize embedder: %w", err)
	}
	emb := embedder.WithCache(provider, embedderCacheSize)

	tok, err := chunker.NewTiktoken("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("initialize tokenizer: %w", err)
	}

	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		cfg:      cfg,
		indexer:  indexer.New(emb, tok, logger),
		searcher: searcher.New(cfg.DataDir, emb, logger),
		emb:      emb,
		logger:   logger.With("component", "mcp"),
	}
	s.registerTools()
	return s, nil
}

// Serve runs the MCP server on stdio and blocks until the client
// disconnects.
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.emb.Close() }()
	s.logger.Info("mcp server starting", "name", ServerName, "version", ServerVersion)
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(buildIndexTool(), s.handleBuildIndex)
	s.mcp.AddTool(searchDocsTool(), s.handleSearchDocs)
	s.mcp.AddTool(getDocContextTool(), s.handleGetDocContext)
}
