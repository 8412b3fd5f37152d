package searcher

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/zellmx/docindex/internal/embedder"
	"github.com/zellmx/docindex/internal/extractor"
	"github.com/zellmx/docindex/internal/index"
	"github.com/zellmx/docindex/pkg/types"
)

// ErrEmptyQuery is returned when the query text is blank.
var ErrEmptyQuery = types.ErrEmptyQuery

// ErrEmptyUniverse is returned when the universe name is blank.
var ErrEmptyUniverse = errors.New("universe cannot be empty")

const (
	// DefaultTopK is the result count when the request does not set one.
	DefaultTopK = 5
	// MaxTopK caps the candidate count per query.
	MaxTopK = 50

	// meetingsMaxDistance is the relevance ceiling for the weekly-minutes
	// universe, expressed as cosine distance (1 - similarity). Candidates
	// beyond it are dropped even inside top-k; other universes leave the
	// cutoff to the caller.
	meetingsMaxDistance = 0.6

	queryCacheSize  = 512
	defaultCacheTTL = 5 * time.Minute
)

// SearchRequest contains parameters for one query against one universe.
type SearchRequest struct {
	Universe string
	Query    string
	TopK     int

	// UseCache serves repeated queries from the LRU result cache.
	UseCache bool
	CacheTTL time.Duration
}

type cacheEntry struct {
	result    *types.SearchResult
	expiresAt time.Time
}

// Searcher answers queries against the persisted universe artifacts. It
// reloads the index and metadata log per call, so an uncached query issued
// after a build sees the new rows. Cached results can trail the index by
// up to their TTL; callers that rebuild in-process call FlushCache.
type Searcher struct {
	dataDir string
	emb     embedder.Embedder
	cache   *lru.Cache[[32]byte, *cacheEntry]
	logger  *slog.Logger
}

// New creates a Searcher over the universe artifacts under dataDir.
func New(dataDir string, emb embedder.Embedder, logger *slog.Logger) *Searcher {
	cache, err := lru.New[[32]byte, *cacheEntry](queryCacheSize)
	if err != nil {
		panic(fmt.Sprintf("create query cache: %v", err))
	}
	return &Searcher{
		dataDir: dataDir,
		emb:     emb,
		cache:   cache,
		logger:  logger.With("component", "searcher"),
	}
}

// FlushCache drops every cached query result. Called after a build so
// searches within the cache TTL see the new rows.
func (s *Searcher) FlushCache() {
	s.cache.Purge()
}

// Search embeds the query and runs exact inner-product search over the
// universe's index, hydrating each hit with curated metadata. Hits carry no
// chunk text; GetContext fetches that separately. An absent or empty
// universe is a structured not-ok result, not an error.
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*types.SearchResult, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrEmptyQuery
	}
	if strings.TrimSpace(req.Universe) == "" {
		return nil, ErrEmptyUniverse
	}
	if req.TopK <= 0 {
		req.TopK = DefaultTopK
	}
	if req.TopK > MaxTopK {
		req.TopK = MaxTopK
	}
	if req.CacheTTL <= 0 {
		req.CacheTTL = defaultCacheTTL
	}

	key := requestHash(req)
	if req.UseCache {
		if entry, ok := s.cache.Get(key); ok {
			if time.Now().Before(entry.expiresAt) {
				return copyResult(entry.result), nil
			}
			s.cache.Remove(key)
		}
	}

	vecIndex, meta, err := s.loadUniverse(req.Universe)
	if err != nil {
		return nil, err
	}
	if vecIndex.Count() == 0 {
		return &types.SearchResult{
			Universe: req.Universe,
			Query:    req.Query,
			Reason:   fmt.Sprintf("universe %q has no indexed chunks; run a build first", req.Universe),
		}, nil
	}

	raw, err := s.emb.Embed(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	candidates, err := vecIndex.Search(embedder.Normalize(raw), req.TopK)
	if err != nil {
		return nil, err
	}

	res := &types.SearchResult{OK: true, Universe: req.Universe, Query: req.Query}
	applyCeiling := req.Universe == extractor.UniverseMeetings
	for _, cand := range candidates {
		if applyCeiling && 1-cand.Score > meetingsMaxDistance {
			continue
		}
		c := meta.At(cand.Row)
		if c == nil {
			continue
		}
		res.Hits = append(res.Hits, buildHit(len(res.Hits)+1, float64(cand.Score), c))
	}

	s.logger.Debug("search complete",
		"universe", req.Universe, "top_k", req.TopK, "hits", len(res.Hits))

	if req.UseCache {
		s.cache.Add(key, &cacheEntry{
			result:    copyResult(res),
			expiresAt: time.Now().Add(req.CacheTTL),
		})
	}
	return res, nil
}

// loadUniverse opens a universe's index and metadata log concurrently and
// verifies their row alignment.
func (s *Searcher) loadUniverse(universe string) (*index.Index, *index.MetaLog, error) {
	var (
		vecIndex *index.Index
		meta     *index.MetaLog
	)
	var g errgroup.Group
	g.Go(func() error {
		var err error
		vecIndex, err = index.Open(s.dataDir, universe)
		return err
	})
	g.Go(func() error {
		var err error
		meta, err = index.OpenMeta(s.dataDir, universe)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := index.CheckAlignment(vecIndex, meta); err != nil {
		return nil, nil, fmt.Errorf("universe %s is corrupt: %w", universe, err)
	}
	return vecIndex, meta, nil
}

// buildHit projects a chunk record onto the light-weight hit payload. The
// title prefers the official catalog title over the source filename.
func buildHit(rank int, score float64, c *types.Chunk) types.SearchHit {
	hit := types.SearchHit{
		Rank:       rank,
		Score:      score,
		ChunkID:    c.ChunkID,
		DocID:      c.DocID,
		Title:      c.DisplayTitle(),
		Section:    c.Section,
		SourcePath: c.SourcePath,
		BlockKind:  string(c.BlockKind),
		RowKey:     c.RowKey,
	}
	if c.Meeting != nil {
		m := *c.Meeting
		hit.Meeting = &m
	}
	if c.Guide != nil {
		g := *c.Guide
		hit.Guide = &g
	}
	if c.Catalog != nil {
		cat := *c.Catalog
		hit.Catalog = &cat
	}
	return hit
}

// requestHash keys the query cache on every request field that changes the
// result.
func requestHash(req SearchRequest) [32]byte {
	var b strings.Builder
	b.WriteString(req.Universe)
	b.WriteString("|")
	b.WriteString(req.Query)
	b.WriteString("|")
	fmt.Fprintf(&b, "%d", req.TopK)
	return sha256.Sum256([]byte(b.String()))
}

// copyResult deep-copies a result so cached entries cannot be mutated by
// callers.
func copyResult(src *types.SearchResult) *types.SearchResult {
	dst := *src
	dst.Hits = make([]types.SearchHit, len(src.Hits))
	for i, h := range src.Hits {
		dst.Hits[i] = h
		if h.Meeting != nil {
			m := *h.Meeting
			dst.Hits[i].Meeting = &m
		}
		if h.Guide != nil {
			g := *h.Guide
			dst.Hits[i].Guide = &g
		}
		if h.Catalog != nil {
			c := *h.Catalog
			dst.Hits[i].Catalog = &c
		}
	}
	return &dst
}
