package main

import (
	"github.com/spf13/cobra"

	"github.com/zellmx/docindex/internal/searcher"
	"github.com/zellmx/docindex/pkg/types"
)

var (
	searchTopK int
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search <universe> <query>",
	Short: "Semantic search over an indexed universe",
	Long: `Embeds the query and runs exact inner-product search over the
universe's vector index. Hits carry citation metadata but no chunk text;
use the context subcommand to fetch full text for a hit.`,
	Args: cobra.ExactArgs(2),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "n", searcher.DefaultTopK, "number of results to return")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	emb, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = emb.Close() }()

	res, err := searcher.New(cfg.DataDir, emb, newLogger()).Search(cmd.Context(), searcher.SearchRequest{
		Universe: args[0],
		Query:    args[1],
		TopK:     searchTopK,
	})
	if err != nil {
		return err
	}

	if searchJSON {
		return printJSON(cmd, res)
	}
	printHits(cmd, res)
	return nil
}

func printHits(cmd *cobra.Command, res *types.SearchResult) {
	if !res.OK {
		cmd.Println(res.Reason)
		return
	}
	if len(res.Hits) == 0 {
		cmd.Println("No results.")
		return
	}
	for _, h := range res.Hits {
		cmd.Printf("  [%d] %s (%.3f)\n", h.Rank, h.Title, h.Score)
		cmd.Printf("      chunk: %s\n", h.ChunkID)
		if h.Section != "" {
			cmd.Printf("      section: %s\n", h.Section)
		}
		if h.RowKey != "" {
			cmd.Printf("      row: %s\n", h.RowKey)
		}
		if h.Catalog != nil && h.Catalog.Codigo != "" {
			cmd.Printf("      codigo: %s\n", h.Catalog.Codigo)
		}
		cmd.Printf("      source: %s\n", h.SourcePath)
		cmd.Println()
	}
}
