package extractor

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/zellmx/docindex/pkg/types"
)

// User guides are .docx documents with a fixed layout: a title, an ÍNDICE
// that gets discarded, then OBJETIVO, TÉRMINOS Y DEFINICIONES, and
// DESARROLLO. Steps inside DESARROLLO may be numbered explicitly ("3.1",
// "2.", "Paso 4") or written as bare imperative sentences, which get
// sequential 3.N labels.

var (
	guideTitleRE = regexp.MustCompile(`(?i)^\((\d+)\)\s+Zell\s+-\s+(.+)$`)
	stepNumberRE = regexp.MustCompile(`(?i)^(?:Paso\s+)?(\d+)[.)]\s*(.+)$`)
	subStepRE    = regexp.MustCompile(`^(\d+)\.(\d+)\s+(.+)$`)
	simpleStepRE = regexp.MustCompile(`^(\d+)\.\s+(.+)$`)
	// Continuation sentences inside DESARROLLO that count as steps.
	implicitStepRE = regexp.MustCompile(`(?i)^(Para|Seleccionar|Marcar|Dar|Ingresar|Crear|Configurar|Una vez|Se mostrará|Se ejecutará|La nueva|El|Se)`)
	leadOrdinalRE  = regexp.MustCompile(`^\((\d+)\)`)
	zellPrefixRE   = regexp.MustCompile(`(?i)^\(\d+\)\s*Zell\s*-\s*`)
	docxExtRE      = regexp.MustCompile(`(?i)\.(docx|doc)$`)

	guideHeaderFooterREs = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^Guía\s+de\s+Usuario\s+.*$`),
		regexp.MustCompile(`(?i)^Página\s+\d+\s+de\s+\d+\s*$`),
		regexp.MustCompile(`(?i)^Zell\s+.*$`),
		regexp.MustCompile(`(?i)^Sistema\s+Zell\s*$`),
	}
)

// developmentSectionNum prefixes implicit step labels; DESARROLLO is the
// third section of the template.
const developmentSectionNum = 3

func isGuideHeaderFooter(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return true
	}
	for _, re := range guideHeaderFooterREs {
		if re.MatchString(t) {
			return true
		}
	}
	// Very short all-caps fragments are repeated page furniture.
	return len(t) < 5 && t == strings.ToUpper(t) && strings.ToLower(t) != t
}

var guideSectionKeywords = []string{
	"INDICE", "ÍNDICE",
	"OBJETIVO",
	"TÉRMINOS Y DEFINICIONES", "TERMINOS Y DEFINICIONES",
	"DESARROLLO",
	"CONFIGURACIÓN", "CONFIGURACION",
	"PROCESO",
}

func isGuideSectionHeader(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" || t != strings.ToUpper(t) || t == strings.ToLower(t) {
		return false
	}
	for _, kw := range guideSectionKeywords {
		if strings.Contains(t, kw) {
			return true
		}
	}
	n := len([]rune(t))
	return n >= 3 && n <= 50
}

// guideTitleFromFilename parses "(N) Zell - Title" out of a filename,
// returning the ordinal and clean title, or (0, "") when it does not match.
func guideTitleFromFilename(path string) (int, string) {
	base := docxExtRE.ReplaceAllString(filepath.Base(path), "")
	m := guideTitleRE.FindStringSubmatch(base)
	if m == nil {
		return 0, ""
	}
	num, _ := strconv.Atoi(m[1])
	return num, strings.TrimSpace(m[2])
}

// guideBlocks parses a user guide into a title block plus one content block
// per paragraph or step.
func guideBlocks(path string, doc *docxDocument) (string, []Block, DocMeta, error) {
	meta := DocMeta{}
	var blocks []Block

	foundTitle := false
	currentSection := ""
	inIndex := false
	stepCounter := 0

	for _, item := range doc.items {
		if item.para == nil {
			continue
		}
		text := strings.TrimSpace(item.para.text)
		if text == "" || isGuideHeaderFooter(text) {
			continue
		}

		if isGuideSectionHeader(text) {
			name := strings.ToUpper(text)
			switch {
			case strings.Contains(name, "INDICE") || strings.Contains(name, "ÍNDICE"):
				inIndex = true
				currentSection = ""
			case strings.Contains(name, "OBJETIVO"):
				inIndex = false
				currentSection = "OBJETIVO"
			case strings.Contains(name, "TÉRMINOS") || strings.Contains(name, "TERMINOS"):
				inIndex = false
				currentSection = "TÉRMINOS Y DEFINICIONES"
			case strings.Contains(name, "DESARROLLO"):
				inIndex = false
				currentSection = "DESARROLLO"
				stepCounter = 0
			default:
				inIndex = false
				currentSection = name
			}
			continue
		}

		if inIndex {
			continue
		}

		if !foundTitle {
			if num, title := guideTitleFromFilename(path); title != "" {
				meta.DocNumber = num
				meta.Title = title
			} else {
				meta.Title = text
				if m := leadOrdinalRE.FindStringSubmatch(text); m != nil {
					meta.DocNumber, _ = strconv.Atoi(m[1])
					meta.Title = strings.TrimSpace(zellPrefixRE.ReplaceAllString(text, ""))
				}
			}
			foundTitle = true
			blocks = append(blocks, Block{
				Text:    meta.Title,
				Kind:    types.BlockGuideTitle,
				Section: "Título",
			})
			continue
		}

		stepNum := 0
		stepLabel := ""
		if m := subStepRE.FindStringSubmatch(text); m != nil {
			main, _ := strconv.Atoi(m[1])
			sub, _ := strconv.Atoi(m[2])
			stepLabel = fmt.Sprintf("%d.%d", main, sub)
			stepNum = main*100 + sub
			text = strings.TrimSpace(m[3])
		} else if m := simpleStepRE.FindStringSubmatch(text); m != nil {
			stepNum, _ = strconv.Atoi(m[1])
			stepLabel = strconv.Itoa(stepNum)
			stepCounter = stepNum
			text = strings.TrimSpace(m[2])
		} else if m := stepNumberRE.FindStringSubmatch(text); m != nil {
			stepNum, _ = strconv.Atoi(m[1])
			stepLabel = "Paso " + m[1]
			stepCounter = stepNum
			text = strings.TrimSpace(m[2])
		} else if currentSection == "DESARROLLO" && implicitStepRE.MatchString(text) {
			stepCounter++
			stepLabel = fmt.Sprintf("%d.%d", developmentSectionNum, stepCounter)
			stepNum = developmentSectionNum*100 + stepCounter
		}

		fullText := text
		if stepLabel != "" && !strings.Contains(text, stepLabel) {
			fullText = stepLabel + "\t" + text
		}

		section := currentSection
		if stepNum > 0 {
			label := stepLabel
			if !strings.Contains(label, ".") {
				label = fmt.Sprintf("Paso %d", stepNum)
			}
			if currentSection != "" {
				section = currentSection + " - " + label
			} else {
				section = label
			}
		}

		blocks = append(blocks, Block{
			Text:       fullText,
			Kind:       types.BlockGuideContent,
			Section:    section,
			StepNumber: stepNum,
			StepLabel:  stepLabel,
		})
	}

	if meta.Title == "" {
		if num, title := guideTitleFromFilename(path); title != "" {
			meta.DocNumber = num
			meta.Title = title
		} else {
			meta.Title = docxExtRE.ReplaceAllString(filepath.Base(path), "")
		}
	}

	var plainParts []string
	for _, b := range blocks {
		plainParts = append(plainParts, b.Text)
	}
	plain := strings.Join(plainParts, "\n\n")
	return plain, blocks, meta, nil
}
