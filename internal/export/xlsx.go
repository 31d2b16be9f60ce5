package export

import (
	"io"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func sheetName(doc document) string {
	switch {
	case doc.Items && doc.Lang == Arabic:
		return "مرتب"
	case doc.Items:
		return "Payroll"
	case doc.Lang == Arabic:
		return "بيانات الرواتب"
	default:
		return "Payroll Data"
	}
}

// spreadsheetValue keeps amounts numeric so the sheet can still be summed.
func spreadsheetValue(v any) any {
	switch x := v.(type) {
	case decimal.Decimal:
		return x.Round(2).InexactFloat64()
	case time.Time:
		return formatText(x)
	default:
		return v
	}
}

type xlsxStyles struct {
	title, header, section, amount, text int
}

func newXLSXStyles(f *excelize.File) (xlsxStyles, error) {
	var st xlsxStyles
	var err error

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}

	if st.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err != nil {
		return st, err
	}
	if st.section, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
	}); err != nil {
		return st, err
	}
	if st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#F5F5F5"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#808080"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	}); err != nil {
		return st, err
	}
	if st.amount, err = f.NewStyle(&excelize.Style{
		NumFmt: 2,
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#F5F5DC"}, Pattern: 1},
		Border: border,
	}); err != nil {
		return st, err
	}
	if st.text, err = f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#F5F5DC"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    border,
	}); err != nil {
		return st, err
	}
	return st, nil
}

func renderXLSX(w io.Writer, doc document) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(doc)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}
	_ = f.SetDocProps(&excelize.DocProperties{
		Title:   doc.Title,
		Creator: "payroll-export",
	})

	if doc.Lang == Arabic {
		rtl := true
		if err := f.SetSheetView(sheet, 0, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
			return err
		}
	}

	st, err := newXLSXStyles(f)
	if err != nil {
		return err
	}

	width := 0
	for _, s := range doc.Sections {
		width = max(width, len(s.Headers))
	}
	widths := make([]int, width)
	track := func(col int, s string) {
		if n := utf8.RuneCountInString(s) + 2; n > widths[col] {
			widths[col] = n
		}
	}

	cell := func(col, row int) string {
		name, _ := excelize.CoordinatesToCellName(col+1, row)
		return name
	}

	row := 1
	if err := f.SetCellValue(sheet, cell(0, row), doc.Title); err != nil {
		return err
	}
	_ = f.SetCellStyle(sheet, cell(0, row), cell(0, row), st.title)
	if width > 1 {
		_ = f.MergeCell(sheet, cell(0, row), cell(width-1, row))
	}
	row++
	if err := f.SetCellValue(sheet, cell(0, row), doc.Generated); err != nil {
		return err
	}
	if width > 1 {
		_ = f.MergeCell(sheet, cell(0, row), cell(width-1, row))
	}
	row += 2

	for _, s := range doc.Sections {
		if s.Title != "" {
			_ = f.SetCellValue(sheet, cell(0, row), s.Title)
			_ = f.SetCellStyle(sheet, cell(0, row), cell(0, row), st.section)
			row++
		}

		for i, h := range s.Headers {
			if err := f.SetCellValue(sheet, cell(i, row), h); err != nil {
				return err
			}
			track(i, h)
		}
		_ = f.SetCellStyle(sheet, cell(0, row), cell(len(s.Headers)-1, row), st.header)
		row++

		for _, values := range s.Rows {
			for i, v := range values {
				if err := f.SetCellValue(sheet, cell(i, row), spreadsheetValue(v)); err != nil {
					return err
				}
				style := st.text
				if _, ok := v.(decimal.Decimal); ok {
					style = st.amount
				}
				_ = f.SetCellStyle(sheet, cell(i, row), cell(i, row), style)
				track(i, formatText(v))
			}
			row++
		}
		row++
	}

	for i, wd := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, float64(wd)); err != nil {
			return err
		}
	}

	return f.Write(w)
}
