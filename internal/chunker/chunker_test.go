package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func TestSplitWindowOffsets(t *testing.T) {
	c := New(NewWordTokenizer(), 650, 120)
	pieces := c.Split(makeWords(2000))

	require.Len(t, pieces, 4)
	want := [][2]int{{0, 650}, {530, 1180}, {1060, 1710}, {1590, 2000}}
	for i, p := range pieces {
		assert.Equal(t, want[i][0], p.Start, "piece %d start", i)
		assert.Equal(t, want[i][1], p.End, "piece %d end", i)
	}
}

func TestSplitShortTextSinglePiece(t *testing.T) {
	c := New(NewWordTokenizer(), 650, 120)
	pieces := c.Split("only a few words here")

	require.Len(t, pieces, 1)
	assert.Equal(t, 0, pieces[0].Start)
	assert.Equal(t, 5, pieces[0].End)
	assert.Equal(t, "only a few words here", pieces[0].Text)
}

func TestSplitEmptyText(t *testing.T) {
	c := New(NewWordTokenizer(), 650, 120)
	assert.Empty(t, c.Split(""))
	assert.Empty(t, c.Split("   \n\t  "))
}

func TestSplitExactWindowNoTrailingEmpty(t *testing.T) {
	c := New(NewWordTokenizer(), 10, 2)
	pieces := c.Split(makeWords(10))

	require.Len(t, pieces, 1)
	assert.Equal(t, 10, pieces[0].End)
}

func TestNewClampsBadParams(t *testing.T) {
	c := New(NewWordTokenizer(), 0, -1)
	assert.Equal(t, DefaultMaxTokens, c.maxTokens)
	assert.Equal(t, DefaultOverlapTokens, c.overlap)

	c = New(NewWordTokenizer(), 5, 9)
	assert.Equal(t, 4, c.overlap)
}

func TestCountTokens(t *testing.T) {
	c := New(NewWordTokenizer(), 650, 120)
	assert.Equal(t, 3, c.CountTokens("uno dos tres"))
	assert.Equal(t, 0, c.CountTokens(""))
}

func TestComputeSections(t *testing.T) {
	text := "intro line\n# Title\nbody text here\n4.2 Alcance\nmore body\n## Sub\ntail\n"
	sections := ComputeSections(text)

	require.Len(t, sections, 3)
	assert.Equal(t, "# Title", sections[0].Heading)
	assert.Equal(t, "4.2 Alcance", sections[1].Heading)
	assert.Equal(t, "## Sub", sections[2].Heading)
	assert.Equal(t, strings.Index(text, "# Title"), sections[0].Pos)
}

func TestSectionForOffset(t *testing.T) {
	sections := []Section{{Pos: 10, Heading: "A"}, {Pos: 50, Heading: "B"}}

	assert.Equal(t, "", SectionForOffset(sections, 5))
	assert.Equal(t, "A", SectionForOffset(sections, 10))
	assert.Equal(t, "A", SectionForOffset(sections, 49))
	assert.Equal(t, "B", SectionForOffset(sections, 500))
	assert.Equal(t, "", SectionForOffset(nil, 500))
}

func TestWordTokenizerRoundTrip(t *testing.T) {
	tok := NewWordTokenizer()
	toks := tok.Encode("uno dos tres uno")

	require.Len(t, toks, 4)
	assert.Equal(t, toks[0], toks[3])
	assert.Equal(t, "uno dos tres uno", tok.Decode(toks))
}
