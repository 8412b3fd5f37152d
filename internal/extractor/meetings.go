package extractor

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/zellmx/docindex/pkg/types"
)

// Weekly meeting minutes follow a fixed template: an ISO-header table, a
// date/time table, an attendee roster (NOMBRE COMPLETO | INICIALES), and a
// topics table whose rows start with a topic number. The extractor rebuilds
// that structure instead of flattening it, emitting one whole-meeting
// summary block plus one row block per topic.

var (
	pageMarkRE     = regexp.MustCompile(`(?i)^\s*P[aá]gina\s+\d+\s+de\s+\d+\s*$`)
	minutaHeaderRE = regexp.MustCompile(`(?i)Nombre del documento:\s*Minuta de Reuni[oó]n Semanal`)
	approvalsRE    = regexp.MustCompile(`(?i)\bELABOR[ÓO]\b|\bAPROB[ÓO]\b|\bREVIS[ÓO]\b`)
	revlogHeaderRE = regexp.MustCompile(`(?i)^\s*Revisi[oó]n\s*\|\s*Cambio\s*\|\s*Fecha\s*$`)

	dateInFilenameRE = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)
	dateLineRE       = regexp.MustCompile(`(?i)\bFecha\s*:\s*(\d{2}/\d{2}/\d{4})\b`)
)

// topicColumnsHeader is the canonical header line rendered above topic rows
// in the meeting summary text.
const topicColumnsHeader = "#Tema | Participante (iniciales) | Situación / Problema / Tema expuesto | Participante (iniciales) | Aprendizajes / Soluciones propuestas / Retroalimentación"

type meetingAttendee struct {
	Name     string
	Initials string
}

type meetingTopic struct {
	Num              int
	ParticipantExp   string
	Situation        string
	ParticipantRetro string
	Learnings        string
}

func (t meetingTopic) render() string {
	return fmt.Sprintf("%d | %s | %s | %s | %s",
		t.Num, t.ParticipantExp, t.Situation, t.ParticipantRetro, t.Learnings)
}

// toISODate converts dd/mm/yyyy to YYYY-MM-DD, returning "" when the input
// does not parse.
func toISODate(ddmmyyyy string) string {
	parts := strings.Split(strings.TrimSpace(ddmmyyyy), "/")
	if len(parts) != 3 {
		return ""
	}
	d, m, y := parts[0], parts[1], parts[2]
	if len(y) != 4 {
		return ""
	}
	if len(d) == 1 {
		d = "0" + d
	}
	if len(m) == 1 {
		m = "0" + m
	}
	return y + "-" + m + "-" + d
}

// IsMeetingBoilerplate reports whether a block is template noise (page
// footers, approval signatures, revision logs, the minutes header). The
// whole-meeting summary is never boilerplate.
func IsMeetingBoilerplate(text string, kind types.BlockKind, tableName string) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return true
	}
	if kind == types.BlockMeetingFull || tableName == "meeting_summary" {
		return false
	}
	if pageMarkRE.MatchString(t) {
		return true
	}
	upper := strings.ToUpper(t)
	if approvalsRE.MatchString(t) &&
		(strings.Contains(upper, "ELABOR") || strings.Contains(upper, "APROB") || strings.Contains(upper, "REVIS")) {
		return true
	}
	if minutaHeaderRE.MatchString(t) {
		return true
	}
	return revlogHeaderRE.MatchString(t)
}

type meetingData struct {
	Date      string
	Start     string
	End       string
	Attendees []meetingAttendee
	Topics    []meetingTopic
}

// meetingBlocks parses a weekly-minutes .docx into one meeting_full block
// plus one table_row block per topic.
func meetingBlocks(path string, doc *docxDocument) (string, []Block, DocMeta, error) {
	data := extractMeetingData(path, doc)

	summary := renderMeetingText(data)
	meeting := &types.MeetingInfo{
		Date:    data.Date,
		DateRaw: data.Date,
		Start:   data.Start,
		End:     data.End,
	}

	var blocks []Block
	var plainLines []string

	if summary != "" {
		blocks = append(blocks, Block{
			Text:      summary,
			Kind:      types.BlockMeetingFull,
			TableName: "meeting_summary",
			Section:   "Minuta",
		})
		plainLines = append(plainLines, summary)
	}

	for _, topic := range data.Topics {
		rowKey := fmt.Sprintf("tema-%d", topic.Num)
		if data.Date != "" {
			rowKey = fmt.Sprintf("%s#tema-%d", data.Date, topic.Num)
		}
		text := topic.render()
		blocks = append(blocks, Block{
			Text:      text,
			Kind:      types.BlockTableRow,
			TableName: "minuta_items",
			RowKey:    rowKey,
			Section:   "Minuta",
		})
		plainLines = append(plainLines, text)
	}

	plain := strings.TrimSpace(strings.Join(plainLines, "\n"))
	return plain, blocks, DocMeta{Meeting: meeting}, nil
}

func extractMeetingData(path string, doc *docxDocument) meetingData {
	var data meetingData

	// Filename date (YYYY-MM-DD) is the fallback when the body has none.
	if m := dateInFilenameRE.FindStringSubmatch(filepath.Base(path)); m != nil {
		data.Date = m[1]
	}

	inAttendees := false
	inTopics := false

	for _, item := range doc.items {
		if item.para != nil {
			txt := strings.TrimSpace(item.para.text)
			if pageMarkRE.MatchString(txt) || strings.Contains(strings.ToUpper(txt), "IMAGEN LOGO") {
				continue
			}
			if m := dateLineRE.FindStringSubmatch(txt); m != nil {
				if iso := toISODate(m[1]); iso != "" {
					data.Date = iso
				} else {
					data.Date = m[1]
				}
			}
			continue
		}

		rows := item.table.rows
		if len(rows) == 0 {
			continue
		}
		if skipMeetingTable(rows) {
			continue
		}

		for _, row := range rows {
			if len(row) == 0 {
				continue
			}
			rowText := strings.ToUpper(strings.Join(row, " "))
			firstCell := strings.ToUpper(strings.TrimSpace(row[0]))

			if strings.Contains(rowText, "HORA INICIO") {
				for i, cell := range row {
					cellUpper := strings.ToUpper(strings.TrimSpace(cell))
					if strings.Contains(cellUpper, "HORA INICIO") && i+1 < len(row) {
						data.Start = strings.TrimSpace(row[i+1])
					} else if strings.Contains(cellUpper, "HORA FIN") && i+1 < len(row) {
						data.End = strings.TrimSpace(row[i+1])
					}
				}
			}

			if strings.Contains(rowText, "FECHA") && data.Date == "" {
				for _, cell := range row {
					if m := dateLineRE.FindStringSubmatch(cell); m != nil {
						if iso := toISODate(m[1]); iso != "" {
							data.Date = iso
						} else {
							data.Date = m[1]
						}
					}
				}
			}

			if strings.Contains(rowText, "NOMBRE COMPLETO") && strings.Contains(rowText, "INICIALES") {
				inAttendees = true
				continue
			}

			if inAttendees {
				if strings.Contains(firstCell, "#TEMA") || strings.Contains(rowText, "TEMAS TRATADOS") {
					inAttendees = false
				} else if len(row) >= 2 {
					name := strings.TrimSpace(row[0])
					initials := strings.TrimSpace(row[1])
					nameUpper := strings.ToUpper(name)
					if name != "" && initials != "" && nameUpper != "NOMBRE COMPLETO" && nameUpper != "NOMBRE" {
						data.Attendees = append(data.Attendees, meetingAttendee{Name: name, Initials: initials})
					}
				}
			}

			if firstCell == "#TEMA" || (strings.HasPrefix(firstCell, "#") && strings.Contains(rowText, "TEMA")) {
				inTopics = true
				inAttendees = false
				continue
			}

			if inTopics && isDigits(firstCell) {
				num, _ := strconv.Atoi(firstCell)
				// Topic 0 belongs to the revision table, not the agenda.
				if num == 0 {
					continue
				}
				data.Topics = append(data.Topics, buildTopic(num, row))
			}
		}
	}
	return data
}

// skipMeetingTable drops the ISO header, signature, and revision-log tables
// by sniffing the first three rows.
func skipMeetingTable(rows [][]string) bool {
	limit := len(rows)
	if limit > 3 {
		limit = 3
	}
	var head []string
	for _, r := range rows[:limit] {
		head = append(head, strings.Join(r, " "))
	}
	allText := strings.ToUpper(strings.Join(head, " "))

	if strings.Contains(allText, "CODIGO") && strings.Contains(allText, "F-OPR") {
		return true
	}
	for _, kw := range []string{"ELABORÓ", "REVISÓ", "APROBÓ"} {
		if strings.Contains(allText, kw) {
			return true
		}
	}
	return strings.Contains(allText, "REVISIÓN") && strings.Contains(allText, "CAMBIO")
}

// buildTopic maps a raw topic row onto the five template columns. Word
// duplicates cell text across merged columns, so consecutive identical
// cells collapse to one before mapping.
func buildTopic(num int, row []string) meetingTopic {
	cleaned := []string{strings.TrimSpace(row[0])}
	for _, cell := range row[1:] {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		if cell != cleaned[len(cleaned)-1] {
			cleaned = append(cleaned, cell)
		}
	}

	t := meetingTopic{Num: num}
	if len(cleaned) > 1 {
		t.ParticipantExp = cleaned[1]
	}
	if len(cleaned) > 2 {
		t.Situation = cleaned[2]
	}
	switch {
	case len(cleaned) >= 5:
		t.ParticipantRetro = cleaned[3]
		t.Learnings = cleaned[4]
	case len(cleaned) == 4:
		// A short cell starting with uppercase letters reads as initials.
		if len(cleaned[3]) < 30 && hasUpperPrefix(cleaned[3]) {
			t.ParticipantRetro = cleaned[3]
		} else {
			t.Learnings = cleaned[3]
		}
	}
	return t
}

func hasUpperPrefix(s string) bool {
	limit := len(s)
	if limit > 5 {
		limit = 5
	}
	for _, r := range s[:limit] {
		if r >= 'A' && r <= 'Z' {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// renderMeetingText produces the canonical summary text embedded as the
// meeting_full chunk: date, times, attendee roster, and all topic rows
// under the five-column header.
func renderMeetingText(data meetingData) string {
	var lines []string
	if data.Date != "" {
		lines = append(lines, "FECHA: "+data.Date)
	}
	if data.Start != "" {
		lines = append(lines, "HORA_INICIO: "+data.Start)
	}
	if data.End != "" {
		lines = append(lines, "HORA_FIN: "+data.End)
	}
	if len(data.Attendees) > 0 {
		lines = append(lines, "\nASISTENTES:")
		for _, a := range data.Attendees {
			lines = append(lines, a.Name+" | "+a.Initials)
		}
	}
	if len(data.Topics) > 0 {
		lines = append(lines, "\nTEMAS_TRATADOS:")
		lines = append(lines, topicColumnsHeader)
		for _, t := range data.Topics {
			lines = append(lines, t.render())
		}
	}
	return strings.Join(lines, "\n")
}
