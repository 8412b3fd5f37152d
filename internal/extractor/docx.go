package extractor

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// docxDocument is the parsed body of a .docx file: paragraphs and tables in
// document order, plus the style-id to style-name mapping from styles.xml.
type docxDocument struct {
	items      []docxItem
	styleNames map[string]string
}

// docxItem is either a paragraph or a table. Exactly one field is set.
type docxItem struct {
	para  *docxParagraph
	table *docxTable
}

type docxParagraph struct {
	styleID string
	text    string
}

// docxTable holds row-major cell text.
type docxTable struct {
	rows [][]string
}

// styleName resolves a paragraph's style id ("Heading1") to its display
// name ("heading 1", lowercased). Unknown ids resolve to the id itself.
func (d *docxDocument) styleName(p *docxParagraph) string {
	if p.styleID == "" {
		return ""
	}
	if name, ok := d.styleNames[p.styleID]; ok {
		return strings.ToLower(name)
	}
	return strings.ToLower(p.styleID)
}

// openDocx opens a .docx file and parses word/document.xml into ordered
// paragraphs and tables.
func openDocx(path string) (*docxDocument, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open docx %s: %w", path, err)
	}
	defer zr.Close()

	doc := &docxDocument{styleNames: map[string]string{}}

	docXML, err := readZipFile(&zr.Reader, "word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("read docx body %s: %w", path, err)
	}
	if err := parseDocumentXML(docXML, doc); err != nil {
		return nil, fmt.Errorf("parse docx body %s: %w", path, err)
	}

	// styles.xml is optional; without it style ids stand in for names.
	if stylesXML, err := readZipFile(&zr.Reader, "word/styles.xml"); err == nil {
		parseStylesXML(stylesXML, doc.styleNames)
	}
	return doc, nil
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s not found in archive", name)
}

// xmlRun and friends mirror the WordprocessingML fragments we care about.
type xmlRun struct {
	Texts []string `xml:"t"`
}

type xmlHyperlink struct {
	Runs []xmlRun `xml:"r"`
}

type xmlParagraph struct {
	Props struct {
		Style struct {
			Val string `xml:"val,attr"`
		} `xml:"pStyle"`
	} `xml:"pPr"`
	Runs  []xmlRun       `xml:"r"`
	Links []xmlHyperlink `xml:"hyperlink"`
}

func (p *xmlParagraph) text() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		for _, t := range r.Texts {
			sb.WriteString(t)
		}
	}
	for _, l := range p.Links {
		for _, r := range l.Runs {
			for _, t := range r.Texts {
				sb.WriteString(t)
			}
		}
	}
	return sb.String()
}

type xmlTableCell struct {
	Paragraphs []xmlParagraph `xml:"p"`
}

type xmlTableRow struct {
	Cells []xmlTableCell `xml:"tc"`
}

type xmlTable struct {
	Rows []xmlTableRow `xml:"tr"`
}

var cellSpaceRE = regexp.MustCompile(`\s+`)

// parseDocumentXML walks the body element token by token so paragraphs and
// tables come out in document order, which struct tags alone cannot give us.
func parseDocumentXML(data []byte, doc *docxDocument) error {
	dec := xml.NewDecoder(strings.NewReader(string(data)))
	inBody := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch {
			case el.Name.Local == "body":
				inBody = true
			case inBody && el.Name.Local == "p":
				var p xmlParagraph
				if err := dec.DecodeElement(&p, &el); err != nil {
					return err
				}
				doc.items = append(doc.items, docxItem{para: &docxParagraph{
					styleID: p.Props.Style.Val,
					text:    p.text(),
				}})
			case inBody && el.Name.Local == "tbl":
				var t xmlTable
				if err := dec.DecodeElement(&t, &el); err != nil {
					return err
				}
				table := &docxTable{}
				for _, row := range t.Rows {
					cells := make([]string, 0, len(row.Cells))
					hasText := false
					for _, c := range row.Cells {
						parts := make([]string, 0, len(c.Paragraphs))
						for _, p := range c.Paragraphs {
							if s := strings.TrimSpace(p.text()); s != "" {
								parts = append(parts, s)
							}
						}
						txt := cellSpaceRE.ReplaceAllString(strings.TrimSpace(strings.Join(parts, " ")), " ")
						if txt != "" {
							hasText = true
						}
						cells = append(cells, txt)
					}
					if hasText {
						table.rows = append(table.rows, cells)
					}
				}
				doc.items = append(doc.items, docxItem{table: table})
			}
		case xml.EndElement:
			if el.Name.Local == "body" {
				inBody = false
			}
		}
	}
}

type xmlStyles struct {
	Styles []struct {
		ID   string `xml:"styleId,attr"`
		Name struct {
			Val string `xml:"val,attr"`
		} `xml:"name"`
	} `xml:"style"`
}

func parseStylesXML(data []byte, out map[string]string) {
	var st xmlStyles
	if err := xml.Unmarshal(data, &st); err != nil {
		return
	}
	for _, s := range st.Styles {
		if s.ID != "" && s.Name.Val != "" {
			out[s.ID] = s.Name.Val
		}
	}
}
