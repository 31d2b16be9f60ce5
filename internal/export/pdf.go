package export

import (
	"fmt"
	"io"
	"os"

	"payroll-export/internal/domain"
	"payroll-export/internal/textshape"

	"github.com/go-pdf/fpdf"
)

const (
	pdfFontFamily = "Amiri"
	pdfCoreFont   = "Helvetica"
	pdfRowHeight  = 7.0
)

type rgb struct{ r, g, b int }

var (
	pdfHeaderFill = rgb{128, 128, 128}
	pdfHeaderText = rgb{245, 245, 245}
	pdfBodyFill   = rgb{245, 245, 220}
	pdfStripeFill = rgb{245, 245, 245}
)

// loadFont returns the family to draw with. Documents that are pure ASCII
// fall back to a core font when no TrueType font can be read.
func (e *Exporter) loadFont(pdf *fpdf.Fpdf, doc document) (string, error) {
	var data []byte
	var readErr error
	if e.fontPath == "" {
		readErr = fmt.Errorf("no font path configured")
	} else {
		data, readErr = os.ReadFile(e.fontPath)
	}

	if readErr != nil {
		if doc.hasNonASCII() {
			return "", fmt.Errorf("%w: %v", domain.ErrFontUnavailable, readErr)
		}
		return pdfCoreFont, nil
	}

	pdf.AddUTF8FontFromBytes(pdfFontFamily, "", data)
	if pdf.Err() {
		return "", fmt.Errorf("%w: %v", domain.ErrFontUnavailable, pdf.Error())
	}
	return pdfFontFamily, nil
}

func (e *Exporter) renderPDF(w io.Writer, doc document) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("payroll-export", true)
	pdf.SetAutoPageBreak(true, 15)

	family, err := e.loadFont(pdf, doc)
	if err != nil {
		return err
	}
	shape := textshape.Shaper(textshape.Shape)

	pdf.AddPage()
	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	usable := pageW - left - right

	pdf.SetFont(family, "", 18)
	pdf.CellFormat(usable, 12, shape(doc.Title), "", 1, "C", false, 0, "")
	pdf.SetFont(family, "", 10)
	pdf.CellFormat(usable, 6, shape(doc.Generated), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	for _, s := range doc.Sections {
		if s.Title != "" {
			pdf.SetFont(family, "", 14)
			pdf.CellFormat(usable, 10, shape(s.Title), "", 1, "L", false, 0, "")
		}
		if doc.Items {
			drawItemTable(pdf, family, usable, s, shape)
		} else {
			drawTable(pdf, family, usable, s, shape)
		}
		pdf.Ln(6)
	}

	if pdf.Err() {
		return pdf.Error()
	}
	return pdf.Output(w)
}

func setFill(pdf *fpdf.Fpdf, c rgb) { pdf.SetFillColor(c.r, c.g, c.b) }
func setText(pdf *fpdf.Fpdf, c rgb) { pdf.SetTextColor(c.r, c.g, c.b) }
func resetText(pdf *fpdf.Fpdf) { pdf.SetTextColor(0, 0, 0) }

// drawTable renders a header row and one row per record, columns sharing the
// page width evenly.
func drawTable(pdf *fpdf.Fpdf, family string, usable float64, s section, shape textshape.Shaper) {
	if len(s.Headers) == 0 {
		return
	}
	colW := usable / float64(len(s.Headers))

	pdf.SetFont(family, "", 9)
	setFill(pdf, pdfHeaderFill)
	setText(pdf, pdfHeaderText)
	for _, h := range s.Headers {
		pdf.CellFormat(colW, pdfRowHeight, shape(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	resetText(pdf)
	setFill(pdf, pdfBodyFill)
	for _, row := range s.Rows {
		for _, v := range row {
			pdf.CellFormat(colW, pdfRowHeight, shape(formatText(v)), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}
}

// drawItemTable renders the two-column (item, value) layout with grey item
// cells and striped value cells.
func drawItemTable(pdf *fpdf.Fpdf, family string, usable float64, s section, shape textshape.Shaper) {
	itemW := usable * 0.6
	valueW := usable - itemW

	pdf.SetFont(family, "", 10)
	setFill(pdf, pdfHeaderFill)
	setText(pdf, pdfHeaderText)
	pdf.CellFormat(itemW, pdfRowHeight, shape(s.Headers[0]), "1", 0, "C", true, 0, "")
	pdf.CellFormat(valueW, pdfRowHeight, shape(s.Headers[1]), "1", 1, "C", true, 0, "")

	for i, row := range s.Rows {
		setFill(pdf, pdfHeaderFill)
		setText(pdf, pdfHeaderText)
		pdf.CellFormat(itemW, pdfRowHeight, shape(formatText(row[0])), "1", 0, "C", true, 0, "")

		resetText(pdf)
		if i%2 == 0 {
			setFill(pdf, pdfStripeFill)
		} else {
			setFill(pdf, pdfBodyFill)
		}
		pdf.CellFormat(valueW, pdfRowHeight, shape(formatText(row[1])), "1", 1, "C", true, 0, "")
	}
}
