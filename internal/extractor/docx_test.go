package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// docxBuilder assembles a minimal .docx archive for tests: a document body
// of paragraphs and tables plus an optional styles part.
type docxBuilder struct {
	body   bytes.Buffer
	styles map[string]string
}

func newDocxBuilder() *docxBuilder {
	return &docxBuilder{styles: map[string]string{
		"Heading1": "heading 1",
		"Heading2": "heading 2",
		"Heading3": "heading 3",
	}}
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func (b *docxBuilder) para(style, text string) *docxBuilder {
	b.body.WriteString("<w:p>")
	if style != "" {
		b.body.WriteString(`<w:pPr><w:pStyle w:val="` + style + `"/></w:pPr>`)
	}
	b.body.WriteString("<w:r><w:t>" + xmlEscape(text) + "</w:t></w:r></w:p>")
	return b
}

func (b *docxBuilder) table(rows [][]string) *docxBuilder {
	b.body.WriteString("<w:tbl>")
	for _, row := range rows {
		b.body.WriteString("<w:tr>")
		for _, cell := range row {
			b.body.WriteString("<w:tc><w:p><w:r><w:t>" + xmlEscape(cell) + "</w:t></w:r></w:p></w:tc>")
		}
		b.body.WriteString("</w:tr>")
	}
	b.body.WriteString("</w:tbl>")
	return b
}

func (b *docxBuilder) writeTo(t *testing.T, path string) string {
	t.Helper()

	var zipBuf bytes.Buffer
	zw := zip.NewWriter(&zipBuf)

	docW, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	docXML := `<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		"<w:body>" + b.body.String() + "</w:body></w:document>"
	_, err = docW.Write([]byte(docXML))
	require.NoError(t, err)

	stylesW, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	var stylesXML strings.Builder
	stylesXML.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">`)
	for id, name := range b.styles {
		stylesXML.WriteString(`<w:style w:styleId="` + id + `"><w:name w:val="` + name + `"/></w:style>`)
	}
	stylesXML.WriteString("</w:styles>")
	_, err = stylesW.Write([]byte(stylesXML.String()))
	require.NoError(t, err)

	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, zipBuf.Bytes(), 0o644))
	return path
}

func TestOpenDocxOrderAndStyles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.docx")
	newDocxBuilder().
		para("Heading1", "Intro").
		para("", "Body paragraph").
		table([][]string{{"a", "b"}, {"c", "d"}}).
		para("", "After table").
		writeTo(t, path)

	doc, err := openDocx(path)
	require.NoError(t, err)
	require.Len(t, doc.items, 4)

	require.NotNil(t, doc.items[0].para)
	require.Equal(t, "Intro", doc.items[0].para.text)
	require.Equal(t, "heading 1", doc.styleName(doc.items[0].para))

	require.NotNil(t, doc.items[2].table)
	require.Equal(t, [][]string{{"a", "b"}, {"c", "d"}}, doc.items[2].table.rows)

	require.NotNil(t, doc.items[3].para)
	require.Equal(t, "After table", doc.items[3].para.text)
}

func TestOpenDocxNotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.docx")
	require.NoError(t, os.WriteFile(path, []byte("plain text, not a zip"), 0o644))

	_, err := openDocx(path)
	require.Error(t, err)
}

func TestOpenDocxEmptyRowsDropped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.docx")
	newDocxBuilder().
		table([][]string{{"", ""}, {"x", ""}}).
		writeTo(t, path)

	doc, err := openDocx(path)
	require.NoError(t, err)
	require.Len(t, doc.items, 1)
	require.Equal(t, [][]string{{"x", ""}}, doc.items[0].table.rows)
}
