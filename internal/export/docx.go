package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"payroll-export/internal/textshape"
)

// A4 portrait with one-inch margins, in twentieths of a point.
const (
	docxPageW     = 11906
	docxPageH     = 16838
	docxMargin    = 1440
	docxTextWidth = docxPageW - 2*docxMargin
)

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>
<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>
</Types>`

const docxRootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>
</Relationships>`

const docxDocumentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
</Relationships>`

const docxStyles = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:docDefaults>
<w:rPrDefault><w:rPr><w:rFonts w:ascii="Arial" w:hAnsi="Arial" w:cs="Arial"/><w:sz w:val="22"/><w:szCs w:val="22"/></w:rPr></w:rPrDefault>
<w:pPrDefault><w:pPr><w:spacing w:after="120"/></w:pPr></w:pPrDefault>
</w:docDefaults>
<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style>
<w:style w:type="paragraph" w:styleId="Title"><w:name w:val="Title"/><w:basedOn w:val="Normal"/><w:pPr><w:jc w:val="center"/><w:spacing w:after="240"/></w:pPr><w:rPr><w:b/><w:bCs/><w:sz w:val="36"/><w:szCs w:val="36"/></w:rPr></w:style>
<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:basedOn w:val="Normal"/><w:pPr><w:keepNext/><w:spacing w:before="240" w:after="120"/></w:pPr><w:rPr><w:b/><w:bCs/><w:sz w:val="28"/><w:szCs w:val="28"/></w:rPr></w:style>
<w:style w:type="table" w:default="1" w:styleId="TableNormal"><w:name w:val="Normal Table"/><w:tblPr><w:tblCellMar><w:left w:w="108" w:type="dxa"/><w:right w:w="108" w:type="dxa"/></w:tblCellMar></w:tblPr></w:style>
<w:style w:type="table" w:styleId="TableGrid"><w:name w:val="Table Grid"/><w:basedOn w:val="TableNormal"/><w:tblPr><w:tblBorders><w:top w:val="single" w:sz="4" w:space="0" w:color="000000"/><w:left w:val="single" w:sz="4" w:space="0" w:color="000000"/><w:bottom w:val="single" w:sz="4" w:space="0" w:color="000000"/><w:right w:val="single" w:sz="4" w:space="0" w:color="000000"/><w:insideH w:val="single" w:sz="4" w:space="0" w:color="000000"/><w:insideV w:val="single" w:sz="4" w:space="0" w:color="000000"/></w:tblBorders></w:tblPr></w:style>
</w:styles>`

func escapeXML(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

type docxWriter struct {
	b   strings.Builder
	rtl bool
}

// paragraph writes one paragraph. Right-to-left text gets bidi paragraph
// and run properties so the word processor shapes it itself.
func (d *docxWriter) paragraph(style, text string, bold bool, align string) {
	rtl := textshape.ContainsRTL(text)

	d.b.WriteString("<w:p><w:pPr>")
	if style != "" {
		fmt.Fprintf(&d.b, `<w:pStyle w:val="%s"/>`, style)
	}
	if rtl || d.rtl {
		d.b.WriteString("<w:bidi/>")
	}
	if align != "" {
		fmt.Fprintf(&d.b, `<w:jc w:val="%s"/>`, align)
	}
	d.b.WriteString("</w:pPr>")

	if text != "" {
		d.b.WriteString("<w:r>")
		if bold || rtl {
			d.b.WriteString("<w:rPr>")
			if bold {
				d.b.WriteString("<w:b/><w:bCs/>")
			}
			if rtl {
				d.b.WriteString("<w:rtl/>")
			}
			d.b.WriteString("</w:rPr>")
		}
		fmt.Fprintf(&d.b, `<w:t xml:space="preserve">%s</w:t>`, escapeXML(text))
		d.b.WriteString("</w:r>")
	}
	d.b.WriteString("</w:p>")
}

func (d *docxWriter) cell(width int, fill, text string, bold bool) {
	fmt.Fprintf(&d.b, `<w:tc><w:tcPr><w:tcW w:w="%d" w:type="dxa"/>`, width)
	if fill != "" {
		fmt.Fprintf(&d.b, `<w:shd w:val="clear" w:color="auto" w:fill="%s"/>`, fill)
	}
	d.b.WriteString("</w:tcPr>")
	d.paragraph("", text, bold, "center")
	d.b.WriteString("</w:tc>")
}

// table writes a TableGrid table; item layouts shade the first column like a
// header.
func (d *docxWriter) table(s section, items bool) {
	if len(s.Headers) == 0 {
		return
	}
	widths := make([]int, len(s.Headers))
	if items && len(widths) == 2 {
		widths[0] = docxTextWidth * 3 / 5
		widths[1] = docxTextWidth - widths[0]
	} else {
		for i := range widths {
			widths[i] = docxTextWidth / len(widths)
		}
	}

	d.b.WriteString(`<w:tbl><w:tblPr><w:tblStyle w:val="TableGrid"/>`)
	if d.rtl {
		d.b.WriteString("<w:bidiVisual/>")
	}
	d.b.WriteString(`<w:tblW w:w="0" w:type="auto"/></w:tblPr><w:tblGrid>`)
	for _, wd := range widths {
		fmt.Fprintf(&d.b, `<w:gridCol w:w="%d"/>`, wd)
	}
	d.b.WriteString("</w:tblGrid>")

	d.b.WriteString("<w:tr>")
	for i, h := range s.Headers {
		d.cell(widths[i], "808080", h, true)
	}
	d.b.WriteString("</w:tr>")

	for r, row := range s.Rows {
		d.b.WriteString("<w:tr>")
		for i, v := range row {
			fill := "F5F5DC"
			bold := false
			switch {
			case items && i == 0:
				fill, bold = "D3D3D3", true
			case items && r%2 == 0:
				fill = "F5F5F5"
			}
			d.cell(widths[i], fill, formatText(v), bold)
		}
		d.b.WriteString("</w:tr>")
	}
	d.b.WriteString("</w:tbl>")
}

func (d *docxWriter) body(doc document) string {
	d.b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	d.b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)

	d.paragraph("Title", doc.Title, false, "center")
	d.paragraph("", doc.Generated, false, "center")

	for _, s := range doc.Sections {
		if s.Title != "" {
			d.paragraph("Heading1", s.Title, false, "")
		}
		d.table(s, doc.Items)
		d.paragraph("", "", false, "")
	}

	fmt.Fprintf(&d.b, `<w:sectPr><w:pgSz w:w="%d" w:h="%d"/><w:pgMar w:top="%d" w:right="%d" w:bottom="%d" w:left="%d" w:header="708" w:footer="708" w:gutter="0"/></w:sectPr>`,
		docxPageW, docxPageH, docxMargin, docxMargin, docxMargin, docxMargin)
	d.b.WriteString("</w:body></w:document>")
	return d.b.String()
}

func docxCoreProps(doc document) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
		"<dc:title>" + escapeXML(doc.Title) + "</dc:title>" +
		"<dc:creator>payroll-export</dc:creator>" +
		"<dc:description>" + escapeXML(doc.Generated) + "</dc:description>" +
		"</cp:coreProperties>"
}

func renderDOCX(w io.Writer, doc document) error {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	dw := &docxWriter{rtl: doc.Lang == Arabic}
	parts := []struct{ name, body string }{
		{"[Content_Types].xml", docxContentTypes},
		{"_rels/.rels", docxRootRels},
		{"docProps/core.xml", docxCoreProps(doc)},
		{"word/_rels/document.xml.rels", docxDocumentRels},
		{"word/styles.xml", docxStyles},
		{"word/document.xml", dw.body(doc)},
	}
	for _, p := range parts {
		fw, err := zw.Create(p.name)
		if err != nil {
			return fmt.Errorf("docx part %s: %w", p.name, err)
		}
		if _, err := io.WriteString(fw, p.body); err != nil {
			return fmt.Errorf("docx part %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}

	_, err := w.Write(buf.Bytes())
	return err
}
