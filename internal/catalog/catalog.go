// Package catalog loads the external document registry and matches source
// files to their curated entries.
//
// The registry is a flat JSON document produced out of band from a
// spreadsheet: {"generated_at": ..., "count": N, "items": {key: entry}}.
// Matching strategies live behind the Matcher interface so the word-overlap
// heuristic can be swapped without touching the pipeline.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Entry is one catalog record. ISO documents and user guides come from
// different registries but share this shape; unused fields stay empty.
type Entry struct {
	// ISO document registry fields.
	Codigo       string `json:"codigo,omitempty"`
	Titulo       string `json:"titulo,omitempty"`
	Domain       string `json:"domain,omitempty"`
	Family       string `json:"family,omitempty"`
	Revision     string `json:"revision,omitempty"`
	Estatus      string `json:"estatus,omitempty"`
	TipoInfo     string `json:"tipo_info,omitempty"`
	AlcanceISO   string `json:"alcance_iso,omitempty"`
	Disposicion  string `json:"disposicion,omitempty"`
	FechaEmision string `json:"fecha_emision,omitempty"`

	// Guide registry fields.
	DocNumber      int    `json:"doc_number,omitempty"`
	Nombre         string `json:"nombre,omitempty"`
	NombreCompleto string `json:"nombre_completo,omitempty"`
	Objetivo       string `json:"objetivo,omitempty"`
	Version        string `json:"version,omitempty"`
	Autores        string `json:"autores,omitempty"`
	UltimoCambio   string `json:"fecha_ultimo_cambio,omitempty"`
	Referencia     string `json:"referencia_cliente_ticket,omitempty"`
}

// Catalog is an in-memory registry keyed by document code or guide number.
type Catalog struct {
	items map[string]*Entry
}

type registryFile struct {
	GeneratedAt string            `json:"generated_at"`
	Count       int               `json:"count"`
	Items       map[string]*Entry `json:"items"`
}

// Load reads a registry JSON from path. A missing or unreadable catalog is
// an error for the caller to log and ignore; enrichment is optional.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return &Catalog{items: map[string]*Entry{}}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var reg registryFile
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if reg.Items == nil {
		reg.Items = map[string]*Entry{}
	}
	return &Catalog{items: reg.Items}, nil
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.items) }

// Get looks up an entry by its registry key.
func (c *Catalog) Get(key string) *Entry {
	if c == nil {
		return nil
	}
	return c.items[key]
}

// codeInFilenameRE matches structured document codes like P-SGSI-14.
var codeInFilenameRE = regexp.MustCompile(`([A-Z]{1,4}-[A-Z]{2,6}-\d{2})`)

// CodeFromFilename extracts a structured document code from a filename, or
// "" when none is present.
func CodeFromFilename(filename string) string {
	m := codeInFilenameRE.FindStringSubmatch(strings.ToUpper(filename))
	if m == nil {
		return ""
	}
	return m[1]
}

// Matcher resolves a source filename to its catalog entry, or nil when no
// entry matches with enough confidence.
type Matcher interface {
	Match(filename string, c *Catalog) *Entry
}

// CodeMatcher looks the filename's document code up verbatim. It is the
// strategy for ISO document universes.
type CodeMatcher struct{}

func (CodeMatcher) Match(filename string, c *Catalog) *Entry {
	code := CodeFromFilename(filename)
	if code == "" {
		return nil
	}
	return c.Get(code)
}

// ordinalRE matches a leading "(N)" ordinal in guide filenames.
var (
	ordinalTitleRE = regexp.MustCompile(`(?i)^\((\d+)\)\s+Zell\s+-\s+(.+)$`)
	ordinalRE      = regexp.MustCompile(`^\((\d+)\)`)
	guideExtRE     = regexp.MustCompile(`(?i)\.(docx|doc)$`)
	nonWordRE      = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	multiSpaceRE   = regexp.MustCompile(`\s+`)
)

// GuideMatcher matches by the guide's leading ordinal first and falls back
// to word-overlap scoring against the catalog names, accepting the best
// candidate only when its score clears MinScore.
type GuideMatcher struct {
	MinScore float64
}

// NewGuideMatcher returns the default guide matching strategy (0.5
// minimum overlap).
func NewGuideMatcher() GuideMatcher {
	return GuideMatcher{MinScore: 0.5}
}

func (m GuideMatcher) Match(filename string, c *Catalog) *Entry {
	base := guideExtRE.ReplaceAllString(strings.TrimSpace(filenameBase(filename)), "")

	num, cleanName := extractOrdinal(base)
	if num > 0 {
		for key, e := range c.items {
			if e.DocNumber == num {
				return e
			}
			if k, err := strconv.Atoi(key); err == nil && k == num {
				return e
			}
		}
	}

	target := normalizeName(cleanName)
	if target == "" {
		target = normalizeName(base)
	}
	if target == "" {
		return nil
	}

	var best *Entry
	bestScore := 0.0
	for _, e := range c.items {
		if score := nameScore(target, e); score > bestScore {
			bestScore = score
			best = e
		}
	}
	if best != nil && bestScore >= m.MinScore {
		return best
	}
	return nil
}

func filenameBase(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// extractOrdinal pulls the "(N)" ordinal and clean title out of a guide
// filename, returning (0, name) when there is no ordinal.
func extractOrdinal(name string) (int, string) {
	if m := ordinalTitleRE.FindStringSubmatch(name); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n, strings.TrimSpace(m[2])
	}
	if m := ordinalRE.FindStringSubmatch(name); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n, strings.TrimSpace(ordinalRE.ReplaceAllString(name, ""))
	}
	return 0, name
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonWordRE.ReplaceAllString(s, "")
	return multiSpaceRE.ReplaceAllString(s, " ")
}

// nameScore compares the normalized filename against an entry's short and
// full names: containment ratio when one contains the other, otherwise the
// fraction of filename words present in the entry's names.
func nameScore(target string, e *Entry) float64 {
	nombre := normalizeName(e.Nombre)
	completo := normalizeName(e.NombreCompleto)

	score := 0.0
	containment := func(a, b string) float64 {
		if a == "" || b == "" || !strings.Contains(b, a) {
			return 0
		}
		return float64(len(a)) / float64(len(b))
	}
	for _, pair := range [][2]string{{nombre, target}, {target, nombre}, {completo, target}, {target, completo}} {
		if s := containment(pair[0], pair[1]); s > score {
			score = s
		}
	}

	targetWords := strings.Fields(target)
	if len(targetWords) > 0 {
		entryWords := map[string]bool{}
		for _, w := range strings.Fields(nombre + " " + completo) {
			entryWords[w] = true
		}
		common := 0
		for _, w := range targetWords {
			if entryWords[w] {
				common++
			}
		}
		if s := float64(common) / float64(len(targetWords)); s > score {
			score = s
		}
	}
	return score
}
