package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zellmx/docindex/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server on stdio",
	Long: `Starts the Model Context Protocol server. The server speaks JSON-RPC
over stdio and exposes the build_index, search_docs, and get_doc_context
tools; all logging goes to stderr.

Client configuration example:
  {
    "mcpServers": {
      "docindex": {
        "command": "/path/to/docindex",
        "args": ["mcp"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	srv, err := mcp.NewServer(cfg, newLogger())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Serve(ctx)
}
