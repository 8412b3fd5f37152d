package searcher

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/zellmx/docindex/internal/extractor"
	"github.com/zellmx/docindex/internal/index"
	"github.com/zellmx/docindex/pkg/types"
)

// DefaultMaxChunks bounds a doc_id context fetch when the request does not
// set its own limit.
const DefaultMaxChunks = 6

// ContextRequest selects chunks for a full-text context fetch, either by
// explicit chunk ids or by document id.
type ContextRequest struct {
	Universe string
	ChunkIDs []string
	DocID    string

	// MaxChunks limits a DocID fetch. Zero means DefaultMaxChunks.
	MaxChunks int
	// ExpandAdjacent includes the previous and next chunk of the same
	// document for every requested chunk id.
	ExpandAdjacent bool
}

// GetContext returns the complete text of the selected chunks, in document
// order, each with a rendered citation header.
//
// Guides are written to be read end-to-end, so in the user-guides universe
// a chunk-id request expands to the requested chunk's entire document
// regardless of ExpandAdjacent.
func (s *Searcher) GetContext(ctx context.Context, req ContextRequest) (*types.ContextResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Universe) == "" {
		return nil, ErrEmptyUniverse
	}

	meta, err := index.OpenMeta(s.dataDir, req.Universe)
	if err != nil {
		return nil, err
	}

	var selected []*types.Chunk
	switch {
	case len(req.ChunkIDs) > 0:
		selected = selectByChunkIDs(meta, req)
	case req.DocID != "":
		maxChunks := req.MaxChunks
		if maxChunks <= 0 {
			maxChunks = DefaultMaxChunks
		}
		selected = meta.DocChunks(req.DocID)
		if len(selected) > maxChunks {
			selected = selected[:maxChunks]
		}
	default:
		return &types.ContextResult{
			Universe: req.Universe,
			Reason:   "provide chunk_ids or doc_id",
		}, nil
	}

	if len(selected) == 0 {
		return &types.ContextResult{
			Universe: req.Universe,
			Reason:   "no chunks found",
		}, nil
	}

	res := &types.ContextResult{OK: true, Universe: req.Universe}
	for _, c := range selected {
		res.Blocks = append(res.Blocks, buildBlock(c))
	}
	return res, nil
}

// selectByChunkIDs resolves the requested ids plus their expansion set and
// returns them ordered by (doc_id, chunk_index).
func selectByChunkIDs(meta *index.MetaLog, req ContextRequest) []*types.Chunk {
	if req.Universe == extractor.UniverseGuides {
		// whole-document expansion: the first resolvable id picks the doc
		for _, id := range req.ChunkIDs {
			if c := meta.ByID(id); c != nil {
				return meta.DocChunks(c.DocID)
			}
		}
		return nil
	}

	var selected []*types.Chunk
	seen := map[string]bool{}
	add := func(c *types.Chunk) {
		if c != nil && !seen[c.ChunkID] {
			seen[c.ChunkID] = true
			selected = append(selected, c)
		}
	}

	for _, id := range req.ChunkIDs {
		add(meta.ByID(id))
	}
	if req.ExpandAdjacent {
		for _, id := range req.ChunkIDs {
			c := meta.ByID(id)
			if c == nil {
				continue
			}
			siblings := meta.DocChunks(c.DocID)
			for _, sib := range siblings {
				if sib.ChunkIndex == c.ChunkIndex-1 || sib.ChunkIndex == c.ChunkIndex+1 {
					add(sib)
				}
			}
		}
	}

	sort.SliceStable(selected, func(i, j int) bool {
		if selected[i].DocID != selected[j].DocID {
			return selected[i].DocID < selected[j].DocID
		}
		return selected[i].ChunkIndex < selected[j].ChunkIndex
	})
	return selected
}

func buildBlock(c *types.Chunk) types.ContextBlock {
	b := types.ContextBlock{
		ChunkID:    c.ChunkID,
		DocID:      c.DocID,
		ChunkIndex: c.ChunkIndex,
		Title:      c.DisplayTitle(),
		Section:    c.Section,
		Header:     renderHeader(c),
		Text:       c.Text,
	}
	if c.Meeting != nil {
		m := *c.Meeting
		b.Meeting = &m
	}
	if c.Guide != nil {
		g := *c.Guide
		b.Guide = &g
	}
	if c.Catalog != nil {
		cat := *c.Catalog
		b.Catalog = &cat
	}
	return b
}

// renderHeader joins the chunk's citation fields into one pipe-separated
// line for display above the text.
func renderHeader(c *types.Chunk) string {
	var parts []string

	if cat := c.Catalog; cat != nil {
		if cat.Codigo != "" {
			parts = append(parts, "Código: "+cat.Codigo)
		}
		if cat.FechaEmision != "" {
			parts = append(parts, "Emisión: "+cat.FechaEmision)
		}
		if cat.Revision != "" {
			parts = append(parts, "Rev: "+cat.Revision)
		}
		if cat.Estatus != "" {
			parts = append(parts, "Estatus: "+cat.Estatus)
		}
	}

	if m := c.Meeting; m != nil {
		if m.Date != "" {
			parts = append(parts, "Fecha reunión: "+m.Date)
		}
		if m.Start != "" && m.End != "" {
			parts = append(parts, fmt.Sprintf("Hora: %s - %s", m.Start, m.End))
		}
	}
	if _, num, found := strings.Cut(c.RowKey, "#tema-"); found {
		parts = append(parts, "Tema #"+num)
	} else if c.RowKey != "" {
		parts = append(parts, "Row: "+c.RowKey)
	}

	if g := c.Guide; g != nil {
		if g.Objetivo != "" {
			parts = append(parts, "Objetivo: "+truncateRunes(g.Objetivo, 100))
		}
		if g.StepLabel != "" {
			parts = append(parts, "Paso: "+g.StepLabel)
		}
		if g.DocNumber != 0 {
			parts = append(parts, fmt.Sprintf("Doc #%d", g.DocNumber))
		}
	}

	return strings.Join(parts, " | ")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
