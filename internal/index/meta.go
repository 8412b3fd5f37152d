package index

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/zellmx/docindex/pkg/types"
)

// MetaLog is the JSONL metadata file paired with a vector index. Line N
// describes index row N; that positional alignment is the only join
// between the two files, so the log is append-only and rows are written in
// the same order vectors are appended.
type MetaLog struct {
	path      string
	chunks    []*types.Chunk
	byID      map[string]int
	persisted int
}

// MetaPath returns the on-disk location of a universe's metadata log.
func MetaPath(outDir, universe string) string {
	return filepath.Join(outDir, types.NormalizeUniverse(universe)+"_meta.jsonl")
}

// OpenMeta loads a universe's metadata log. A missing file yields an empty
// log; a malformed line is an error because positions would shift.
func OpenMeta(outDir, universe string) (*MetaLog, error) {
	m := &MetaLog{
		path: MetaPath(outDir, universe),
		byID: map[string]int{},
	}
	f, err := os.Open(m.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return m, nil
		}
		return nil, fmt.Errorf("open metadata log: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var c types.Chunk
		if err := json.Unmarshal(line, &c); err != nil {
			return nil, fmt.Errorf("metadata log %s line %d: %w", m.path, lineNo, err)
		}
		m.add(&c)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan metadata log %s: %w", m.path, err)
	}
	m.persisted = len(m.chunks)
	return m, nil
}

func (m *MetaLog) add(c *types.Chunk) {
	if _, ok := m.byID[c.ChunkID]; !ok {
		m.byID[c.ChunkID] = len(m.chunks)
	}
	m.chunks = append(m.chunks, c)
}

// Append stages chunks as new rows, in order.
func (m *MetaLog) Append(chunks ...*types.Chunk) {
	for _, c := range chunks {
		m.add(c)
	}
}

// Count returns the number of rows, including unstaged ones.
func (m *MetaLog) Count() int { return len(m.chunks) }

// FilePath returns where the log persists.
func (m *MetaLog) FilePath() string { return m.path }

// At returns the chunk at row, or nil when out of range.
func (m *MetaLog) At(row int) *types.Chunk {
	if row < 0 || row >= len(m.chunks) {
		return nil
	}
	return m.chunks[row]
}

// ByID returns the chunk with the given id, preferring the earliest row
// when re-indexing produced duplicates.
func (m *MetaLog) ByID(chunkID string) *types.Chunk {
	if row, ok := m.byID[chunkID]; ok {
		return m.chunks[row]
	}
	return nil
}

// Has reports whether a chunk id is already present.
func (m *MetaLog) Has(chunkID string) bool {
	_, ok := m.byID[chunkID]
	return ok
}

// All returns every chunk in row order. The slice is shared; callers must
// not mutate it.
func (m *MetaLog) All() []*types.Chunk { return m.chunks }

// DocChunks returns all chunks of a document ordered by chunk index.
func (m *MetaLog) DocChunks(docID string) []*types.Chunk {
	var out []*types.Chunk
	for _, c := range m.chunks {
		if c.DocID == docID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ChunkIndex < out[j].ChunkIndex })
	return out
}

// Save appends rows staged since load to the log file.
func (m *MetaLog) Save() error {
	if m.persisted == len(m.chunks) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(m.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open metadata log for write: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, c := range m.chunks[m.persisted:] {
		if err := enc.Encode(c); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	m.persisted = len(m.chunks)
	return nil
}

// CheckAlignment verifies the row-alignment contract between an index and
// its metadata log.
func CheckAlignment(ix *Index, m *MetaLog) error {
	if ix.Count() != m.Count() {
		return fmt.Errorf("index has %d rows but metadata log has %d", ix.Count(), m.Count())
	}
	return nil
}
