package main

import (
	"github.com/spf13/cobra"

	"github.com/zellmx/docindex/internal/indexer"
)

var (
	buildChunkTokens   int
	buildOverlapTokens int
	buildTopLevelOnly  bool
	buildMaxFiles      int
	buildOutDir        string
	buildCatalogPath   string
)

var buildCmd = &cobra.Command{
	Use:   "build <universe> <input-dir>",
	Short: "Incrementally index a universe's documents",
	Long: `Discovers supported files (.txt, .md, .docx) under the input directory,
skips files already indexed with unchanged content, and appends chunks for
the rest to the universe's vector index and metadata log.

A file whose chunks fail to embed is deferred in full and retried on the
next run; the run's artifacts persist together at the end, so an
interrupted build never leaves the index and metadata log misaligned.`,
	Args: cobra.ExactArgs(2),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().IntVar(&buildChunkTokens, "chunk-tokens", 0, "maximum tokens per chunk (default from config)")
	buildCmd.Flags().IntVar(&buildOverlapTokens, "overlap-tokens", 0, "token overlap between chunks (default from config)")
	buildCmd.Flags().BoolVar(&buildTopLevelOnly, "top-level-only", false, "do not descend into subdirectories")
	buildCmd.Flags().IntVar(&buildMaxFiles, "max-files", 0, "limit the number of files processed (0 = no limit)")
	buildCmd.Flags().StringVar(&buildOutDir, "out-dir", "", "artifact directory (default: config data_dir)")
	buildCmd.Flags().StringVar(&buildCatalogPath, "catalog", "", "catalog registry JSON (default: config catalog_path)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()

	emb, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = emb.Close() }()

	tok, err := newTokenizer()
	if err != nil {
		return err
	}

	opts := indexer.Options{
		Universe:      args[0],
		InputDir:      args[1],
		OutDir:        cfg.DataDir,
		ChunkTokens:   cfg.Chunker.MaxTokens,
		OverlapTokens: cfg.Chunker.OverlapTokens,
		TopLevelOnly:  buildTopLevelOnly,
		MaxFiles:      buildMaxFiles,
		CatalogPath:   cfg.CatalogPath,
	}
	if buildOutDir != "" {
		opts.OutDir = buildOutDir
	}
	if buildCatalogPath != "" {
		opts.CatalogPath = buildCatalogPath
	}
	if buildChunkTokens > 0 {
		opts.ChunkTokens = buildChunkTokens
	}
	if buildOverlapTokens > 0 {
		opts.OverlapTokens = buildOverlapTokens
	}

	res, err := indexer.New(emb, tok, logger).Build(cmd.Context(), opts)
	if err != nil {
		return err
	}
	return printJSON(cmd, res)
}
