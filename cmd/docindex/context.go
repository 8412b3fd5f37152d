package main

import (
	"github.com/spf13/cobra"

	"github.com/zellmx/docindex/internal/searcher"
	"github.com/zellmx/docindex/pkg/types"
)

var (
	contextChunkIDs  []string
	contextDocID     string
	contextMaxChunks int
	contextNoExpand  bool
	contextJSON      bool
)

var contextCmd = &cobra.Command{
	Use:   "context <universe>",
	Short: "Fetch the full text of chunks",
	Long: `Fetches complete chunk text from a universe's metadata log, selected
either by explicit chunk ids (expanding to the neighboring chunk on each
side unless --no-expand is set) or by doc id (the document's first chunks).

In the user-guides universe a chunk-id fetch always returns the entire
document, since guides are meant to be read end-to-end.`,
	Args: cobra.ExactArgs(1),
	RunE: runContext,
}

func init() {
	contextCmd.Flags().StringSliceVar(&contextChunkIDs, "chunk-ids", nil, "chunk ids to fetch")
	contextCmd.Flags().StringVar(&contextDocID, "doc-id", "", "fetch the first chunks of this document")
	contextCmd.Flags().IntVar(&contextMaxChunks, "max-chunks", searcher.DefaultMaxChunks, "maximum chunks for a --doc-id fetch")
	contextCmd.Flags().BoolVar(&contextNoExpand, "no-expand", false, "do not include adjacent chunks")
	contextCmd.Flags().BoolVar(&contextJSON, "json", false, "output blocks as JSON")
	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// context fetches never embed; the searcher's embedder stays unused
	res, err := searcher.New(cfg.DataDir, nil, newLogger()).GetContext(cmd.Context(), searcher.ContextRequest{
		Universe:       args[0],
		ChunkIDs:       contextChunkIDs,
		DocID:          contextDocID,
		MaxChunks:      contextMaxChunks,
		ExpandAdjacent: !contextNoExpand,
	})
	if err != nil {
		return err
	}

	if contextJSON {
		return printJSON(cmd, res)
	}
	printBlocks(cmd, res)
	return nil
}

func printBlocks(cmd *cobra.Command, res *types.ContextResult) {
	if !res.OK {
		cmd.Println(res.Reason)
		return
	}
	for _, b := range res.Blocks {
		cmd.Printf("=== %s [%s]\n", b.Title, b.ChunkID)
		if b.Header != "" {
			cmd.Println(b.Header)
		}
		if b.Section != "" {
			cmd.Printf("Sección: %s\n", b.Section)
		}
		cmd.Println()
		cmd.Println(b.Text)
		cmd.Println()
	}
}
