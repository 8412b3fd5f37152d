package extractor

import (
	"strings"

	"github.com/zellmx/docindex/pkg/types"
)

// genericBlocks turns a .docx into paragraph and table blocks. Word heading
// styles become markdown markers so downstream section mapping sees them,
// and the current heading is carried as each block's section.
func genericBlocks(doc *docxDocument) (string, []Block, DocMeta, error) {
	var blocks []Block
	var plainLines []string
	currentSection := ""
	seen := map[string]bool{}

	appendBlock := func(b Block) {
		fp := types.Fingerprint(b.Text)
		if seen[fp] {
			return
		}
		seen[fp] = true
		blocks = append(blocks, b)
		plainLines = append(plainLines, b.Text)
	}

	for _, item := range doc.items {
		if item.para != nil {
			txt := strings.TrimSpace(item.para.text)
			if txt == "" {
				continue
			}
			style := doc.styleName(item.para)
			switch {
			case strings.Contains(style, "heading 1"):
				txt = "# " + txt
				currentSection = txt
			case strings.Contains(style, "heading 2"):
				txt = "## " + txt
				currentSection = txt
			case strings.Contains(style, "heading 3"):
				txt = "### " + txt
				currentSection = txt
			}
			appendBlock(Block{Text: txt, Kind: types.BlockParagraph, Section: currentSection})
			continue
		}

		text := flattenTable(item.table)
		if text == "" {
			continue
		}
		appendBlock(Block{Text: text, Kind: types.BlockTable, TableName: "generic", Section: currentSection})
	}

	plain := strings.TrimSpace(strings.Join(plainLines, "\n"))
	return plain, blocks, DocMeta{}, nil
}

// flattenTable renders a table as pipe-separated lines, one per row, empty
// cells dropped.
func flattenTable(t *docxTable) string {
	var lines []string
	for _, row := range t.rows {
		var cells []string
		for _, c := range row {
			if c != "" {
				cells = append(cells, c)
			}
		}
		if line := strings.Join(cells, " | "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
