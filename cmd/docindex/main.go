// Command docindex builds and queries per-universe document indexes.
//
// It exposes the pipeline through four subcommands: build (incremental
// indexing), search (semantic query), context (full chunk text fetch), and
// mcp (Model Context Protocol server on stdio).
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

var version = "dev"

func main() {
	// .env is optional; the embedder reads its API key from the
	// environment either way
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
