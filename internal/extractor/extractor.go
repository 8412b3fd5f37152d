package extractor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/zellmx/docindex/pkg/types"
)

// Universe names with specialized extraction.
const (
	UniverseMeetings = "meetings_weekly"
	UniverseGuides   = "user_guides"
)

// Block is one extracted unit of a document before token chunking: a
// paragraph, a flattened table, a meeting summary or topic row, or a guide
// step.
type Block struct {
	Text       string
	Kind       types.BlockKind
	TableName  string
	RowKey     string
	Section    string
	StepNumber int
	StepLabel  string
}

// DocMeta carries document-level fields the extractor learned that apply to
// every chunk of the document.
type DocMeta struct {
	Title     string
	DocNumber int
	Meeting   *types.MeetingInfo
}

// Extract reads a document and returns its plain text, structured blocks,
// and document metadata. Supported formats are .txt, .md, and .docx; the
// universe selects meeting-minutes or user-guide parsing for .docx files.
func Extract(path, universe string) (string, []Block, DocMeta, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".txt", ".md":
		text, err := readTextFile(path)
		if err != nil {
			return "", nil, DocMeta{}, err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return "", nil, DocMeta{}, nil
		}
		blocks := []Block{{Text: text, Kind: types.BlockText}}
		return text, blocks, DocMeta{}, nil
	case ".docx":
		doc, err := openDocx(path)
		if err != nil {
			return "", nil, DocMeta{}, err
		}
		switch universe {
		case UniverseMeetings:
			return meetingBlocks(path, doc)
		case UniverseGuides:
			return guideBlocks(path, doc)
		default:
			return genericBlocks(doc)
		}
	default:
		return "", nil, DocMeta{}, fmt.Errorf("%w: %s (%s)", types.ErrUnsupportedFormat, ext, path)
	}
}

// readTextFile reads a text file as UTF-8, reinterpreting as Latin-1 when
// the bytes are not valid UTF-8. Legacy exports still show up in Latin-1.
func readTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes), nil
}
