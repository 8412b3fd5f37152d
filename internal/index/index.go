package index

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/zellmx/docindex/pkg/types"
)

// File layout: 4-byte magic, uint32 dimension, then count*dim float32
// values, everything little-endian. The row count is implied by file size.
var indexMagic = [4]byte{'D', 'I', 'X', '1'}

// Index is a flat inner-product index: all vectors in memory, exact
// search. Vectors must be unit length for scores to be cosine similarity.
type Index struct {
	path string
	dim  int
	vecs [][]float32

	// persisted counts rows already on disk; Save appends the rest.
	persisted int
}

// Hit is one search result: a row position and its inner-product score.
type Hit struct {
	Row   int
	Score float32
}

// Path returns the on-disk location of a universe's vector index.
func Path(outDir, universe string) string {
	return filepath.Join(outDir, types.NormalizeUniverse(universe)+".index")
}

// Open loads a universe's index. A missing file yields an empty index whose
// dimension is fixed by the first Append.
func Open(outDir, universe string) (*Index, error) {
	ix := &Index{path: Path(outDir, universe)}
	f, err := os.Open(ix.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ix, nil
		}
		return nil, fmt.Errorf("open index: %w", err)
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 1<<20)
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("read index header %s: %w", ix.path, err)
	}
	if magic != indexMagic {
		return nil, fmt.Errorf("index %s: bad magic %q", ix.path, magic[:])
	}
	var dim uint32
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return nil, fmt.Errorf("read index header %s: %w", ix.path, err)
	}
	if dim == 0 {
		return nil, fmt.Errorf("index %s: zero dimension", ix.path)
	}
	ix.dim = int(dim)

	rowBytes := make([]byte, ix.dim*4)
	for {
		if _, err := io.ReadFull(r, rowBytes); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			// a torn trailing row from a crashed writer is dropped
			if errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return nil, fmt.Errorf("read index rows %s: %w", ix.path, err)
		}
		vec := make([]float32, ix.dim)
		for i := range vec {
			vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(rowBytes[i*4:]))
		}
		ix.vecs = append(ix.vecs, vec)
	}
	ix.persisted = len(ix.vecs)
	return ix, nil
}

// Dim returns the vector dimension, 0 when the index is empty and unused.
func (ix *Index) Dim() int { return ix.dim }

// Count returns the number of rows, including unstaged ones.
func (ix *Index) Count() int { return len(ix.vecs) }

// FilePath returns where the index persists.
func (ix *Index) FilePath() string { return ix.path }

// Append adds vectors as new rows. The first vector of an empty index fixes
// the dimension; later mismatches fail with ErrDimMismatch and add nothing.
func (ix *Index) Append(vecs ...[]float32) error {
	for _, v := range vecs {
		if len(v) == 0 {
			return fmt.Errorf("%w: empty vector", types.ErrDimMismatch)
		}
		if ix.dim == 0 {
			ix.dim = len(v)
		}
		if len(v) != ix.dim {
			return fmt.Errorf("%w: got %d, index has %d", types.ErrDimMismatch, len(v), ix.dim)
		}
	}
	ix.vecs = append(ix.vecs, vecs...)
	return nil
}

// Truncate drops trailing rows so exactly n remain, shrinking the file
// when the dropped rows were already persisted. Used to discard rows a
// crashed run never described in the metadata log.
func (ix *Index) Truncate(n int) error {
	if n < 0 || n >= len(ix.vecs) {
		return nil
	}
	ix.vecs = ix.vecs[:n]
	if ix.persisted > n {
		size := int64(len(indexMagic) + 4 + n*ix.dim*4)
		if err := os.Truncate(ix.path, size); err != nil {
			return fmt.Errorf("truncate index: %w", err)
		}
		ix.persisted = n
	}
	return nil
}

// Save appends rows added since load to the index file, writing the header
// first when the file is new.
func (ix *Index) Save() error {
	if ix.persisted == len(ix.vecs) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(ix.path), 0o755); err != nil {
		return err
	}

	fresh := ix.persisted == 0
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if fresh {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	f, err := os.OpenFile(ix.path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("open index for write: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriterSize(f, 1<<20)
	if fresh {
		if _, err := w.Write(indexMagic[:]); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(ix.dim)); err != nil {
			return err
		}
	}
	row := make([]byte, ix.dim*4)
	for _, vec := range ix.vecs[ix.persisted:] {
		for i, v := range vec {
			binary.LittleEndian.PutUint32(row[i*4:], math.Float32bits(v))
		}
		if _, err := w.Write(row); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	ix.persisted = len(ix.vecs)
	return nil
}

// Search returns the topK rows with the highest inner product against
// query. Fewer hits come back when the index is smaller than topK.
func (ix *Index) Search(query []float32, topK int) ([]Hit, error) {
	if len(query) != ix.dim {
		return nil, fmt.Errorf("%w: query has %d, index has %d", types.ErrDimMismatch, len(query), ix.dim)
	}
	if topK <= 0 || len(ix.vecs) == 0 {
		return nil, nil
	}

	hits := make([]Hit, 0, len(ix.vecs))
	for row, vec := range ix.vecs {
		var dot float32
		for i, q := range query {
			dot += q * vec[i]
		}
		hits = append(hits, Hit{Row: row, Score: dot})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Row < hits[j].Row
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}
