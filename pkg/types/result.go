package types

// BuildResult is the structured summary returned by one build run.
// Soft failures (no files, no chunks, no embeddings) are reported with
// OK=false and a human-readable Reason instead of an error.
type BuildResult struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`

	Universe string `json:"universe"`
	InputDir string `json:"input_dir"`

	Files          int `json:"files"`
	FilesProcessed int `json:"files_processed"`
	FilesSkipped   int `json:"files_skipped"`
	FilesFailed    int `json:"files_failed"`

	Docs        int `json:"docs"`
	ChunksNew   int `json:"chunks_new"`
	ChunksTotal int `json:"chunks_total"`
	Dim         int `json:"dim"`

	IndexPath     string `json:"index_path,omitempty"`
	MetaPath      string `json:"meta_path,omitempty"`
	EmbCachePath  string `json:"emb_cache_path,omitempty"`
	FileCachePath string `json:"file_cache_path,omitempty"`
	CatalogPath   string `json:"catalog_path,omitempty"`

	CatalogMatched int  `json:"catalog_docs_matched,omitempty"`
	Incremental    bool `json:"incremental_update"`

	// Per-block-kind chunk counts, populated for the meetings universe.
	BlockKindCounts map[string]int `json:"block_kind_counts,omitempty"`

	Errors []string `json:"errors,omitempty"`
}

// SearchHit is one ranked result from the query path. It carries a
// curated metadata subset, never the full chunk text.
type SearchHit struct {
	Rank    int     `json:"rank"` // 1-based, after any post-filtering
	Score   float64 `json:"score"`
	ChunkID string  `json:"chunk_id"`
	DocID   string  `json:"doc_id"`

	Title      string `json:"title"` // catalog title when available
	Section    string `json:"section,omitempty"`
	SourcePath string `json:"source_path"`
	BlockKind  string `json:"block_kind,omitempty"`
	RowKey     string `json:"row_key,omitempty"`

	Meeting *MeetingInfo `json:"meeting,omitempty"`
	Guide   *GuideInfo   `json:"guide,omitempty"`
	Catalog *CatalogInfo `json:"catalog,omitempty"`
}

// SearchResult wraps the hits for one query against one universe.
type SearchResult struct {
	OK       bool        `json:"ok"`
	Reason   string      `json:"reason,omitempty"`
	Universe string      `json:"universe"`
	Query    string      `json:"query"`
	Hits     []SearchHit `json:"hits"`
}

// ContextBlock is one chunk returned by the full-context operation,
// including its complete text and a rendered citation header.
type ContextBlock struct {
	ChunkID    string `json:"chunk_id"`
	DocID      string `json:"doc_id"`
	ChunkIndex int    `json:"chunk_index"`
	Title      string `json:"title"`
	Section    string `json:"section,omitempty"`
	Header     string `json:"header"`
	Text       string `json:"text"`

	Meeting *MeetingInfo `json:"meeting,omitempty"`
	Guide   *GuideInfo   `json:"guide,omitempty"`
	Catalog *CatalogInfo `json:"catalog,omitempty"`
}

// ContextResult wraps the blocks for one full-context fetch.
type ContextResult struct {
	OK       bool           `json:"ok"`
	Reason   string         `json:"reason,omitempty"`
	Universe string         `json:"universe"`
	Blocks   []ContextBlock `json:"blocks"`
}
