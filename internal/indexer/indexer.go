package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zellmx/docindex/internal/cache"
	"github.com/zellmx/docindex/internal/catalog"
	"github.com/zellmx/docindex/internal/chunker"
	"github.com/zellmx/docindex/internal/embedder"
	"github.com/zellmx/docindex/internal/extractor"
	"github.com/zellmx/docindex/internal/index"
	"github.com/zellmx/docindex/pkg/types"
)

// Blocks below this token count in the meetings data table are embedded
// whole instead of being window-split.
const smallBlockTokens = 800

// supportedExts lists indexable file extensions. Guides are .docx only.
var supportedExts = []string{".txt", ".md", ".docx"}

// Options configures one build run.
type Options struct {
	Universe      string
	InputDir      string
	OutDir        string
	ChunkTokens   int
	OverlapTokens int
	TopLevelOnly  bool
	MaxFiles      int
	CatalogPath   string
}

// Indexer builds and extends a universe's index incrementally.
type Indexer struct {
	emb    embedder.Embedder
	tok    chunker.Tokenizer
	logger *slog.Logger
}

// New creates an Indexer. The tokenizer is shared with query-side chunk
// accounting so offsets agree.
func New(emb embedder.Embedder, tok chunker.Tokenizer, logger *slog.Logger) *Indexer {
	return &Indexer{emb: emb, tok: tok, logger: logger.With("component", "indexer")}
}

// Build runs one incremental indexing pass over opts.InputDir.
//
// Files whose content hash is already in the file cache are skipped. Each
// remaining file is extracted, chunked, and embedded as a unit: if any of
// its chunks fails to embed, the whole file is dropped from this run and
// left unmarked so the next run retries it. Vectors, metadata rows, and
// file-cache entries stage in memory and persist together at the end, so
// an interrupted run never advances the index and metadata log out of
// step.
func (ix *Indexer) Build(ctx context.Context, opts Options) (*types.BuildResult, error) {
	if opts.ChunkTokens <= 0 {
		opts.ChunkTokens = chunker.DefaultMaxTokens
	}
	if opts.OverlapTokens < 0 {
		opts.OverlapTokens = chunker.DefaultOverlapTokens
	}
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	res := &types.BuildResult{
		Universe:      opts.Universe,
		InputDir:      opts.InputDir,
		IndexPath:     index.Path(opts.OutDir, opts.Universe),
		MetaPath:      index.MetaPath(opts.OutDir, opts.Universe),
		EmbCachePath:  cache.EmbCachePath(opts.OutDir, opts.Universe),
		FileCachePath: cache.FileCachePath(opts.OutDir, opts.Universe),
		CatalogPath:   opts.CatalogPath,
	}

	cat := ix.loadCatalog(opts.CatalogPath)
	matcher := matcherFor(opts.Universe)

	fileCache, err := cache.LoadFileCache(opts.OutDir, opts.Universe)
	if err != nil {
		return nil, err
	}
	embCache, err := cache.LoadEmbeddingCache(opts.OutDir, opts.Universe)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = embCache.Close()
	}()

	files, err := discoverFiles(opts)
	if err != nil {
		return nil, err
	}
	res.Files = len(files)
	if len(files) == 0 {
		res.Reason = fmt.Sprintf("no supported files (%s) in %s", strings.Join(supportedExts, ", "), opts.InputDir)
		return res, nil
	}

	vecIndex, err := index.Open(opts.OutDir, opts.Universe)
	if err != nil {
		return nil, err
	}
	meta, err := index.OpenMeta(opts.OutDir, opts.Universe)
	if err != nil {
		return nil, err
	}
	if err := index.CheckAlignment(vecIndex, meta); err != nil {
		if vecIndex.Count() <= meta.Count() {
			return nil, fmt.Errorf("universe %s is corrupt: %w", opts.Universe, err)
		}
		// a run that died between the index and metadata saves leaves
		// orphan trailing vectors; their files were never marked in the
		// file cache, so the rows can be dropped and rebuilt below
		ix.logger.Warn("dropping orphan index rows",
			"universe", opts.Universe, "index_rows", vecIndex.Count(), "meta_rows", meta.Count())
		if err := vecIndex.Truncate(meta.Count()); err != nil {
			return nil, err
		}
	}
	res.Incremental = vecIndex.Count() > 0

	split := chunker.New(ix.tok, opts.ChunkTokens, opts.OverlapTokens)

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		key := fileKey(opts.InputDir, f)
		sha, err := types.FileSHA256(f)
		if err != nil {
			res.FilesFailed++
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", key, err))
			continue
		}
		if fileCache.IsProcessed(key, sha) {
			res.FilesSkipped++
			continue
		}

		chunks, matched, err := ix.fileChunks(opts, split, cat, matcher, f, sha)
		if err != nil {
			res.FilesFailed++
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", key, err))
			ix.logger.Warn("file failed", "file", key, "error", err)
			continue
		}
		if len(chunks) == 0 {
			// empty or all-boilerplate files still count as processed
			fileCache.MarkProcessed(key, sha)
			res.FilesProcessed++
			continue
		}

		vectors, err := ix.embedChunks(ctx, embCache, chunks)
		if err != nil {
			// the file contributes nothing this run; retried next time
			res.FilesFailed++
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", key, err))
			ix.logger.Warn("embedding failed, file deferred", "file", key, "error", err)
			continue
		}

		if vecIndex.Dim() != 0 && vecIndex.Count() > 0 && len(vectors[0]) != vecIndex.Dim() {
			ix.logger.Warn("embedding dimension changed, rebuilding universe",
				"universe", opts.Universe, "old", vecIndex.Dim(), "new", len(vectors[0]))
			vecIndex, meta, err = resetArtifacts(opts.OutDir, opts.Universe)
			if err != nil {
				return nil, err
			}
			res.Incremental = false
		}

		if err := vecIndex.Append(vectors...); err != nil {
			return nil, err
		}
		meta.Append(chunks...)
		fileCache.MarkProcessed(key, sha)
		res.FilesProcessed++
		res.ChunksNew += len(chunks)
		if matched {
			res.CatalogMatched++
		}
	}

	if res.ChunksNew == 0 {
		// zero-chunk files were still marked processed; persist that so
		// they are skipped next run
		if err := fileCache.Save(); err != nil {
			return nil, err
		}
		res.OK = true
		res.Dim = vecIndex.Dim()
		res.ChunksTotal = vecIndex.Count()
		res.Docs = countDocs(meta)
		if res.FilesFailed > 0 && res.FilesProcessed == 0 && res.FilesSkipped == 0 {
			res.OK = false
			res.Reason = "no chunks produced; every file failed"
			return res, nil
		}
		res.Reason = "no new chunks; index unchanged"
		return res, nil
	}

	if err := index.CheckAlignment(vecIndex, meta); err != nil {
		return nil, err
	}
	// the index persists before the metadata log: if the run dies in
	// between, the next open drops the orphan trailing rows
	if err := vecIndex.Save(); err != nil {
		return nil, err
	}
	if err := meta.Save(); err != nil {
		return nil, err
	}
	if err := fileCache.Save(); err != nil {
		return nil, err
	}

	res.OK = true
	res.Dim = vecIndex.Dim()
	res.ChunksTotal = vecIndex.Count()
	res.Docs = countDocs(meta)
	if opts.Universe == extractor.UniverseMeetings {
		res.BlockKindCounts = blockKindCounts(meta)
	}

	ix.logger.Info("build complete",
		"universe", opts.Universe,
		"files", res.Files,
		"processed", res.FilesProcessed,
		"skipped", res.FilesSkipped,
		"failed", res.FilesFailed,
		"chunks_new", res.ChunksNew,
		"chunks_total", res.ChunksTotal,
		"dim", res.Dim)
	return res, nil
}

func (ix *Indexer) loadCatalog(path string) *catalog.Catalog {
	cat, err := catalog.Load(path)
	if err != nil {
		// enrichment is optional; the run proceeds with null catalog fields
		ix.logger.Warn("catalog unavailable, skipping enrichment", "path", path, "error", err)
		empty, _ := catalog.Load("")
		return empty
	}
	return cat
}

func matcherFor(universe string) catalog.Matcher {
	if universe == extractor.UniverseGuides {
		return catalog.NewGuideMatcher()
	}
	return catalog.CodeMatcher{}
}

// fileChunks extracts one file into fully-populated chunk records, without
// embeddings.
func (ix *Indexer) fileChunks(
	opts Options,
	split *chunker.Chunker,
	cat *catalog.Catalog,
	matcher catalog.Matcher,
	path, sha string,
) ([]*types.Chunk, bool, error) {
	title := filepath.Base(path)
	docID := types.DocID(sha)

	entry := matcher.Match(title, cat)

	plain, blocks, docMeta, err := extractor.Extract(path, opts.Universe)
	if err != nil {
		return nil, false, err
	}
	if docMeta.Title != "" {
		title = docMeta.Title
	}

	var sections []chunker.Section
	if plain != "" {
		sections = chunker.ComputeSections(plain)
	}

	filtered := filterBlocks(opts.Universe, blocks)
	if len(filtered) == 0 {
		return nil, entry != nil, nil
	}

	var chunks []*types.Chunk
	tokenCursor := 0
	chunkIdx := 0

	for _, b := range filtered {
		section := b.Section
		if section == "" && len(sections) > 0 {
			// approximate: anchor the block's first characters in the
			// plain text and take the latest heading before it
			anchor := b.Text
			if len(anchor) > 120 {
				anchor = anchor[:120]
			}
			if at := strings.Index(plain, anchor); at >= 0 {
				section = chunker.SectionForOffset(sections, at)
			}
		}

		var pieces []chunker.Piece
		if atomicBlock(opts.Universe, b, split) {
			pieces = []chunker.Piece{{Text: b.Text, Start: 0, End: split.CountTokens(b.Text)}}
		} else {
			pieces = split.Split(b.Text)
		}
		if len(pieces) == 0 {
			continue
		}

		for _, p := range pieces {
			c := &types.Chunk{
				ChunkID:    types.NewChunkID(docID, chunkIdx),
				Universe:   opts.Universe,
				DocID:      docID,
				Title:      title,
				SourcePath: path,
				SHA256:     sha,
				ChunkIndex: chunkIdx,
				Section:    section,
				TokenStart: tokenCursor + p.Start,
				TokenEnd:   tokenCursor + p.End,
				Text:       p.Text,
				BlockKind:  b.Kind,
				TableName:  b.TableName,
				RowKey:     b.RowKey,
			}
			chunkIdx++
			attachPayloads(c, opts.Universe, b, docMeta, entry)
			chunks = append(chunks, c)
		}
		tokenCursor += pieces[len(pieces)-1].End
	}
	return chunks, entry != nil, nil
}

// filterBlocks drops empty blocks, meeting boilerplate, and duplicate
// blocks within one file.
func filterBlocks(universe string, blocks []extractor.Block) []extractor.Block {
	var out []extractor.Block
	seen := map[string]bool{}
	for _, b := range blocks {
		text := strings.TrimSpace(b.Text)
		if text == "" {
			continue
		}
		if universe == extractor.UniverseMeetings && extractor.IsMeetingBoilerplate(text, b.Kind, b.TableName) {
			continue
		}
		fp := types.Fingerprint(text)
		if seen[fp] {
			continue
		}
		seen[fp] = true
		out = append(out, b)
	}
	return out
}

// atomicBlock reports whether a block must be embedded whole. The meeting
// summary is always atomic; small rows of the meetings data table are too.
func atomicBlock(universe string, b extractor.Block, split *chunker.Chunker) bool {
	if universe != extractor.UniverseMeetings {
		return false
	}
	if b.Kind == types.BlockMeetingFull || b.TableName == "meeting_summary" {
		return true
	}
	if b.TableName == "meeting_data" {
		return split.CountTokens(b.Text) < smallBlockTokens
	}
	return false
}

// attachPayloads selects the tagged extension payloads for a chunk by
// universe and catalog match.
func attachPayloads(c *types.Chunk, universe string, b extractor.Block, docMeta extractor.DocMeta, entry *catalog.Entry) {
	switch universe {
	case extractor.UniverseMeetings:
		if docMeta.Meeting != nil {
			mi := *docMeta.Meeting
			c.Meeting = &mi
		}
	case extractor.UniverseGuides:
		g := &types.GuideInfo{
			StepNumber: b.StepNumber,
			StepLabel:  b.StepLabel,
			DocNumber:  docMeta.DocNumber,
		}
		if entry != nil {
			if entry.DocNumber != 0 {
				g.DocNumber = entry.DocNumber
			}
			g.Objetivo = entry.Objetivo
			g.Version = entry.Version
			g.Autores = entry.Autores
			g.UltimoCambio = entry.UltimoCambio
			g.Referencia = entry.Referencia
			if entry.NombreCompleto != "" {
				c.Catalog = &types.CatalogInfo{Title: entry.NombreCompleto}
			}
		}
		c.Guide = g
	default:
		if entry != nil {
			c.Catalog = &types.CatalogInfo{
				Codigo:       entry.Codigo,
				Domain:       entry.Domain,
				Family:       entry.Family,
				Revision:     entry.Revision,
				Estatus:      entry.Estatus,
				TipoInfo:     entry.TipoInfo,
				AlcanceISO:   entry.AlcanceISO,
				Disposicion:  entry.Disposicion,
				FechaEmision: entry.FechaEmision,
				Title:        entry.Titulo,
			}
			if c.Catalog.Codigo == "" {
				c.Catalog.Codigo = catalog.CodeFromFilename(filepath.Base(c.SourcePath))
			}
		}
	}
}

// embedChunks returns one normalized vector per chunk, consulting the
// durable cache first. Any failure aborts the whole file.
func (ix *Indexer) embedChunks(ctx context.Context, embCache *cache.EmbeddingCache, chunks []*types.Chunk) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))
	for _, c := range chunks {
		key := types.CacheKey(c.ChunkID, c.Text)
		if raw := embCache.Get(key); raw != nil {
			vectors = append(vectors, embedder.Normalize(raw))
			continue
		}
		raw, err := ix.emb.Embed(ctx, c.Text)
		if err != nil {
			return nil, fmt.Errorf("embed %s: %w", c.ChunkID, err)
		}
		if err := embCache.Append(key, raw); err != nil {
			return nil, err
		}
		vectors = append(vectors, embedder.Normalize(raw))
	}
	return vectors, nil
}

// discoverFiles lists indexable files under the input directory, sorted
// for deterministic runs.
func discoverFiles(opts Options) ([]string, error) {
	exts := supportedExts
	if opts.Universe == extractor.UniverseGuides {
		exts = []string{".docx"}
	}
	supported := func(name string) bool {
		lower := strings.ToLower(name)
		for _, e := range exts {
			if strings.HasSuffix(lower, e) {
				return true
			}
		}
		return false
	}

	var files []string
	if opts.TopLevelOnly {
		entries, err := os.ReadDir(opts.InputDir)
		if err != nil {
			return nil, fmt.Errorf("read input dir: %w", err)
		}
		for _, e := range entries {
			if !e.IsDir() && supported(e.Name()) {
				files = append(files, filepath.Join(opts.InputDir, e.Name()))
			}
		}
	} else {
		err := filepath.WalkDir(opts.InputDir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && supported(d.Name()) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk input dir: %w", err)
		}
	}

	sort.Strings(files)
	if opts.MaxFiles > 0 && len(files) > opts.MaxFiles {
		files = files[:opts.MaxFiles]
	}
	return files, nil
}

// fileKey is the file-cache key: the path relative to the input directory,
// slash-separated on every platform.
func fileKey(inputDir, path string) string {
	rel, err := filepath.Rel(inputDir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// resetArtifacts deletes and reopens a universe's index and metadata log.
func resetArtifacts(outDir, universe string) (*index.Index, *index.MetaLog, error) {
	if err := os.Remove(index.Path(outDir, universe)); err != nil && !os.IsNotExist(err) {
		return nil, nil, err
	}
	if err := os.Remove(index.MetaPath(outDir, universe)); err != nil && !os.IsNotExist(err) {
		return nil, nil, err
	}
	ix, err := index.Open(outDir, universe)
	if err != nil {
		return nil, nil, err
	}
	meta, err := index.OpenMeta(outDir, universe)
	if err != nil {
		return nil, nil, err
	}
	return ix, meta, nil
}

func countDocs(meta *index.MetaLog) int {
	docs := map[string]bool{}
	for _, c := range meta.All() {
		docs[c.DocID] = true
	}
	return len(docs)
}

func blockKindCounts(meta *index.MetaLog) map[string]int {
	counts := map[string]int{}
	for _, c := range meta.All() {
		kind := string(c.BlockKind)
		if kind == "" {
			kind = "none"
		}
		counts[kind]++
	}
	return counts
}
