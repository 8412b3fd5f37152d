package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/zellmx/docindex/internal/chunker"
	"github.com/zellmx/docindex/internal/config"
	"github.com/zellmx/docindex/internal/embedder"
	"github.com/zellmx/docindex/internal/log"
)

var (
	flagConfig  string
	flagVerbose bool
	flagLogJSON bool
)

var rootCmd = &cobra.Command{
	Use:   "docindex",
	Short: "Incremental document indexing and semantic search",
	Long: `docindex maintains per-universe vector indexes over office and text
documents and answers semantic queries against them.

Each universe (docs_org, docs_iso, meetings_weekly, user_guides) owns four
artifacts in the data directory: a binary vector index, a JSONL metadata
log aligned row-for-row with it, an embedding cache, and a file cache that
makes repeat builds incremental.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "docindex.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagLogJSON, "log-json", false, "log in JSON instead of text")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", flagConfig, err)
	}
	return cfg, nil
}

func newLogger() log.Logger {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level, JSON: flagLogJSON})
}

// embedderCacheSize bounds the in-memory embedding LRU for one invocation.
const embedderCacheSize = 2048

func newEmbedder(cfg *config.Config) (embedder.Embedder, error) {
	provider, err := embedder.NewOpenAI(cfg.Embedder)
	if err != nil {
		return nil, err
	}
	return embedder.WithCache(provider, embedderCacheSize), nil
}

func newTokenizer() (chunker.Tokenizer, error) {
	return chunker.NewTiktoken("cl100k_base")
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
