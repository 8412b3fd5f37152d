package chunker

import (
	"regexp"
	"strings"
)

const (
	// DefaultMaxTokens is the target maximum token count per chunk.
	DefaultMaxTokens = 650

	// DefaultOverlapTokens is how many tokens consecutive chunks share.
	DefaultOverlapTokens = 120
)

// Piece is one token-bounded slice of a larger text. Start and End are token
// offsets within the text the piece was cut from, half-open [Start, End).
type Piece struct {
	Text  string
	Start int
	End   int
}

// Chunker splits text into overlapping token windows.
type Chunker struct {
	tok       Tokenizer
	maxTokens int
	overlap   int
}

// New creates a Chunker. Non-positive maxTokens or negative overlap fall
// back to the defaults.
func New(tok Tokenizer, maxTokens, overlap int) *Chunker {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if overlap < 0 {
		overlap = DefaultOverlapTokens
	}
	if overlap >= maxTokens {
		overlap = maxTokens - 1
	}
	return &Chunker{tok: tok, maxTokens: maxTokens, overlap: overlap}
}

// Split cuts text into token windows of at most maxTokens, each overlapping
// the previous by overlap tokens. Whitespace-only windows are dropped but
// still advance the cursor, so token offsets stay aligned with the source.
func (c *Chunker) Split(text string) []Piece {
	toks := c.tok.Encode(text)
	n := len(toks)
	var pieces []Piece

	i := 0
	for i < n {
		j := i + c.maxTokens
		if j > n {
			j = n
		}
		chunk := strings.TrimSpace(c.tok.Decode(toks[i:j]))
		if chunk != "" {
			pieces = append(pieces, Piece{Text: chunk, Start: i, End: j})
		}
		if j == n {
			break
		}
		i = j - c.overlap
		if i < 0 {
			i = 0
		}
	}
	return pieces
}

// CountTokens returns the token length of text.
func (c *Chunker) CountTokens(text string) int {
	return len(c.tok.Encode(text))
}

// MaxTokens reports the configured window size.
func (c *Chunker) MaxTokens() int { return c.maxTokens }

// headingRE matches markdown headings and numbered headings like "4.2 Scope".
var headingRE = regexp.MustCompile(`^\s*(#{1,6}\s+.+|(\d+(\.\d+)*)\s+.+?)\s*$`)

// Section is a heading and the byte offset of the line it starts on.
type Section struct {
	Pos     int
	Heading string
}

// ComputeSections scans text line by line and records every heading with its
// byte position, in document order.
func ComputeSections(text string) []Section {
	var sections []Section
	pos := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		trimmed := strings.TrimRight(line, "\n")
		if strings.TrimSpace(trimmed) != "" && headingRE.MatchString(trimmed) {
			sections = append(sections, Section{Pos: pos, Heading: strings.TrimSpace(trimmed)})
		}
		pos += len(line)
	}
	return sections
}

// SectionForOffset returns the heading of the latest section starting at or
// before the given byte offset, or "" when no heading precedes it.
func SectionForOffset(sections []Section, offset int) string {
	best := ""
	for _, s := range sections {
		if s.Pos <= offset {
			best = s.Heading
		} else {
			break
		}
	}
	return best
}
