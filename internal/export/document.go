package export

import (
	"fmt"
	"strings"
	"time"

	"payroll-export/internal/domain"
)

const (
	timestampLayout = "2006-01-02 15:04:05"

	singleTitle = "Payroll Report"
	manyTitle   = "Payroll Data Report"
)

// document is the format-neutral shape every writer renders.
type document struct {
	Title     string
	Generated string
	Sections  []section
	Lang      Language

	// Items marks the two-column (item, value) layout of a single breakdown.
	Items bool
}

// section is one titled table. Title is empty when the document has a single
// ungrouped table.
type section struct {
	Title   string
	Headers []string
	Rows    [][]any
}

func generatedLine(now time.Time) string {
	return "Generated on: " + now.Format(timestampLayout)
}

func singleHeaders(lang Language) []string {
	if lang == English {
		return []string{"Item", "Value"}
	}
	return []string{"البند", "القيمة"}
}

// buildSingle lays one breakdown out as (item, value) rows.
func buildSingle(b domain.PayrollBreakdown, lang Language, now time.Time) document {
	rec := domain.PayrollRecord{PayrollBreakdown: b}

	cols := singleColumns()
	rows := make([][]any, 0, len(cols))
	for _, c := range cols {
		rows = append(rows, []any{c.Header(lang), c.Value(rec)})
	}

	return document{
		Title:     singleTitle,
		Generated: generatedLine(now),
		Lang:      lang,
		Items:     true,
		Sections: []section{{
			Headers: singleHeaders(lang),
			Rows:    rows,
		}},
	}
}

// buildPerRecord gives each record a heading with the employee's name and an
// (item, value) table of the selected columns.
func buildPerRecord(records []domain.PayrollRecord, cols []Column, lang Language, now time.Time) document {
	doc := document{
		Title:     singleTitle,
		Generated: generatedLine(now),
		Lang:      lang,
		Items:     true,
		Sections:  make([]section, 0, len(records)),
	}

	for i, r := range records {
		s := section{
			Title:   recordHeading(r, i+1, lang),
			Headers: singleHeaders(lang),
			Rows:    make([][]any, 0, len(cols)),
		}
		for _, c := range cols {
			s.Rows = append(s.Rows, []any{c.Header(lang), c.Value(r)})
		}
		doc.Sections = append(doc.Sections, s)
	}
	return doc
}

// recordHeading falls back to the record's position when the name is blank.
func recordHeading(r domain.PayrollRecord, n int, lang Language) string {
	name := strings.TrimSpace(r.EmployeeName)
	if lang == English {
		if name == "" {
			name = fmt.Sprintf("Employee %d", n)
		}
		return "Employee Data: " + name
	}
	if name == "" {
		name = fmt.Sprintf("موظف %d", n)
	}
	return "بيانات الموظف: " + name
}

// buildMany lays records out as a table, split into the fixed column groups
// when there are more columns than the target can show side by side.
// threshold <= 0 means no limit.
func buildMany(records []domain.PayrollRecord, cols []Column, threshold int, lang Language, now time.Time) document {
	doc := document{
		Title:     manyTitle,
		Generated: generatedLine(now),
		Lang:      lang,
	}

	if threshold <= 0 || len(cols) <= threshold {
		doc.Sections = []section{tableSection("", cols, records, lang)}
		return doc
	}

	for g := range groupTitles {
		var inGroup []Column
		for _, c := range cols {
			if c.group == group(g) {
				inGroup = append(inGroup, c)
			}
		}
		if len(inGroup) == 0 {
			continue
		}
		doc.Sections = append(doc.Sections, tableSection(groupTitles[g], inGroup, records, lang))
	}
	return doc
}

func tableSection(title string, cols []Column, records []domain.PayrollRecord, lang Language) section {
	s := section{
		Title:   title,
		Headers: make([]string, len(cols)),
		Rows:    make([][]any, 0, len(records)),
	}
	for i, c := range cols {
		s.Headers[i] = c.Header(lang)
	}
	for _, r := range records {
		row := make([]any, len(cols))
		for i, c := range cols {
			row[i] = c.Value(r)
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

// hasNonASCII reports whether any text in the document needs a Unicode font.
func (d document) hasNonASCII() bool {
	check := func(s string) bool {
		for i := 0; i < len(s); i++ {
			if s[i] >= 0x80 {
				return true
			}
		}
		return false
	}
	if check(d.Title) || check(d.Generated) {
		return true
	}
	for _, s := range d.Sections {
		if check(s.Title) {
			return true
		}
		for _, h := range s.Headers {
			if check(h) {
				return true
			}
		}
		for _, row := range s.Rows {
			for _, v := range row {
				if check(formatText(v)) {
					return true
				}
			}
		}
	}
	return false
}
