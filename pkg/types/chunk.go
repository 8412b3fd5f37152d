package types

import "errors"

// BlockKind tags the structural origin of a chunk and drives both
// boilerplate filtering and the atomic-chunking policy.
type BlockKind string

const (
	// BlockText is a whole plain-text or markdown file.
	BlockText BlockKind = "text"
	// BlockParagraph is a paragraph from a structured document.
	BlockParagraph BlockKind = "paragraph"
	// BlockTable is a whole table flattened to pipe-delimited rows.
	BlockTable BlockKind = "table"
	// BlockTableRow is a single numbered row of a topics table.
	BlockTableRow BlockKind = "table_row"
	// BlockMeetingFull is the canonical rendering of an entire meeting.
	// It is never split, regardless of token length.
	BlockMeetingFull BlockKind = "meeting_full"
	// BlockGuideTitle is the title paragraph of a step-guide document.
	BlockGuideTitle BlockKind = "title"
	// BlockGuideContent is body content of a step-guide document.
	BlockGuideContent BlockKind = "content"
)

// MeetingInfo carries the structured fields extracted from a
// meeting-minutes document. Attached only in the meetings universe.
type MeetingInfo struct {
	Date    string `json:"meeting_date,omitempty"`     // ISO YYYY-MM-DD when parseable
	DateRaw string `json:"meeting_date_raw,omitempty"` // as found in the document
	Start   string `json:"meeting_start,omitempty"`
	End     string `json:"meeting_end,omitempty"`
}

// GuideInfo carries step and catalog fields specific to the user-guides
// universe.
type GuideInfo struct {
	StepNumber   int    `json:"step_number,omitempty"` // sortable: 3.1 -> 301
	StepLabel    string `json:"step_label,omitempty"`  // "3.1", "Paso 4"
	DocNumber    int    `json:"doc_number,omitempty"`
	Objetivo     string `json:"objetivo,omitempty"`
	Version      string `json:"version,omitempty"`
	Autores      string `json:"autores,omitempty"`
	UltimoCambio string `json:"fecha_ultimo_cambio,omitempty"`
	Referencia   string `json:"referencia_cliente_ticket,omitempty"`
}

// CatalogInfo holds human-curated enrichment fields from the document
// catalog. These are attached to chunks, never derived from chunk text.
type CatalogInfo struct {
	Codigo       string `json:"codigo,omitempty"`
	Domain       string `json:"domain,omitempty"`
	Family       string `json:"family,omitempty"`
	Revision     string `json:"revision,omitempty"`
	Estatus      string `json:"estatus,omitempty"`
	TipoInfo     string `json:"tipo_info,omitempty"`
	AlcanceISO   string `json:"alcance_iso,omitempty"`
	Disposicion  string `json:"disposicion,omitempty"`
	FechaEmision string `json:"fecha_emision,omitempty"` // YYYY-MM-DD
	Title        string `json:"catalog_title,omitempty"` // official title
}

// Chunk is the atomic retrievable unit: the exact text that was embedded
// plus enough metadata to render and cite it. The core fields are common
// to every universe; Meeting, Guide and Catalog are tagged extension
// payloads selected at construction time by universe and block kind.
type Chunk struct {
	ChunkID    string `json:"chunk_id"` // <doc_id>_<n>
	Universe   string `json:"universe"`
	DocID      string `json:"doc_id"` // first 12 hex chars of SHA-256
	Title      string `json:"title"`
	SourcePath string `json:"source_path"`
	SHA256     string `json:"sha256"`
	ChunkIndex int    `json:"chunk_index"` // 0-based, contiguous per document
	Section    string `json:"section,omitempty"`
	TokenStart int    `json:"token_start"`
	TokenEnd   int    `json:"token_end"`
	Text       string `json:"text"`

	BlockKind BlockKind `json:"block_kind,omitempty"`
	TableName string    `json:"table_name,omitempty"`
	RowKey    string    `json:"row_key,omitempty"`

	Meeting *MeetingInfo `json:"meeting,omitempty"`
	Guide   *GuideInfo   `json:"guide,omitempty"`
	Catalog *CatalogInfo `json:"catalog,omitempty"`
}

// DisplayTitle prefers the official catalog title over the filename.
func (c *Chunk) DisplayTitle() string {
	if c.Catalog != nil && c.Catalog.Title != "" {
		return c.Catalog.Title
	}
	return c.Title
}

// Atomic reports whether this chunk came from a block that must never be
// split by the sliding window.
func (c *Chunk) Atomic() bool {
	return c.BlockKind == BlockMeetingFull
}

// Validate performs basic integrity checks on the chunk record.
func (c *Chunk) Validate() error {
	if c.ChunkID == "" {
		return errors.New("chunk id is required")
	}
	if c.Universe == "" {
		return errors.New("universe is required")
	}
	if c.DocID == "" {
		return errors.New("doc id is required")
	}
	if c.ChunkIndex < 0 {
		return errors.New("chunk index must be >= 0")
	}
	if c.TokenStart < 0 || c.TokenEnd < c.TokenStart {
		return errors.New("token offsets must be monotonic")
	}
	if c.Text == "" {
		return errors.New("chunk text cannot be empty")
	}
	return nil
}
