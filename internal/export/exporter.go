// Package export renders payroll breakdowns and stored records into PDF,
// XLSX and DOCX documents.
package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"payroll-export/internal/domain"

	"go.uber.org/zap"
)

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
	FormatDOCX Format = "docx"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))); f {
	case FormatPDF, FormatXLSX, FormatDOCX:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, s)
}

func (f Format) Extension() string {
	return "." + string(f)
}

func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/octet-stream"
}

// columnThreshold is how many columns fit side by side before a table is
// split into column groups. Zero means unlimited.
func (f Format) columnThreshold() int {
	switch f {
	case FormatPDF, FormatDOCX:
		return 5
	}
	return 0
}

// Layout arranges a record export.
type Layout string

const (
	// LayoutTable puts one record per row, split into column groups when the
	// format needs it.
	LayoutTable Layout = "table"
	// LayoutPerRecord gives every record its own titled (item, value) table.
	LayoutPerRecord Layout = "per_record"
)

// ParseLayout maps "" to LayoutTable.
func ParseLayout(s string) (Layout, error) {
	switch l := Layout(strings.ToLower(strings.TrimSpace(s))); l {
	case "", LayoutTable:
		return LayoutTable, nil
	case LayoutPerRecord:
		return l, nil
	}
	return "", domain.NewValidationError("export", "layout", fmt.Sprintf("unknown layout %q", s))
}

// Options tunes a single export call.
type Options struct {
	// Fields selects columns by key for record exports. Empty means all.
	Fields []string
	// Language picks the label set. Empty means Arabic.
	Language Language
	// Layout arranges record exports. Empty means LayoutTable.
	Layout Layout
}

type Config struct {
	// FontPath is a TrueType font with Arabic coverage used for PDF output.
	FontPath string
}

type Exporter struct {
	fontPath string
	now      func() time.Time
	log      *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{
		fontPath: cfg.FontPath,
		now:      time.Now,
		log:      log,
	}
}

// WithClock overrides the timestamp printed on documents.
func (e *Exporter) WithClock(now func() time.Time) *Exporter {
	e.now = now
	return e
}

// ExportSingle writes one breakdown as an (item, value) table.
func (e *Exporter) ExportSingle(ctx context.Context, b domain.PayrollBreakdown, format Format, path string, opts Options) error {
	const op = "export payroll breakdown"

	if err := ctx.Err(); err != nil {
		return &domain.ExportError{Op: op, Format: string(format), Path: path, Err: err}
	}
	if _, err := ParseFormat(string(format)); err != nil {
		return &domain.ExportError{Op: op, Format: string(format), Path: path, Err: err}
	}
	lang, err := ParseLanguage(string(opts.Language))
	if err != nil {
		return err
	}

	doc := buildSingle(b, lang, e.now())
	return e.write(ctx, op, format, path, doc)
}

// ExportMany writes records as a table, or as one (item, value) table per
// record with LayoutPerRecord. An empty slice fails before the destination is
// touched.
func (e *Exporter) ExportMany(ctx context.Context, records []domain.PayrollRecord, format Format, path string, opts Options) error {
	const op = "export payroll records"

	if err := ctx.Err(); err != nil {
		return &domain.ExportError{Op: op, Format: string(format), Path: path, Err: err}
	}
	if len(records) == 0 {
		return &domain.ExportError{Op: op, Format: string(format), Path: path, Err: domain.ErrEmptyRecordSet}
	}
	if _, err := ParseFormat(string(format)); err != nil {
		return &domain.ExportError{Op: op, Format: string(format), Path: path, Err: err}
	}
	lang, err := ParseLanguage(string(opts.Language))
	if err != nil {
		return err
	}
	layout, err := ParseLayout(string(opts.Layout))
	if err != nil {
		return err
	}
	cols, err := selectColumns(opts.Fields)
	if err != nil {
		return err
	}

	var doc document
	if layout == LayoutPerRecord {
		doc = buildPerRecord(records, cols, lang, e.now())
	} else {
		doc = buildMany(records, cols, format.columnThreshold(), lang, e.now())
	}
	return e.write(ctx, op, format, path, doc)
}

func (e *Exporter) render(format Format, doc document) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case FormatPDF:
		err = e.renderPDF(&buf, doc)
	case FormatXLSX:
		err = renderXLSX(&buf, doc)
	case FormatDOCX:
		err = renderDOCX(&buf, doc)
	default:
		err = domain.ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Exporter) write(ctx context.Context, op string, format Format, path string, doc document) error {
	data, err := e.render(format, doc)
	if err != nil {
		return &domain.ExportError{Op: op, Format: string(format), Path: path, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return &domain.ExportError{Op: op, Format: string(format), Path: path, Err: err}
	}
	if err := writeFileAtomic(path, data); err != nil {
		return &domain.ExportError{Op: op, Format: string(format), Path: path, Err: err}
	}

	e.log.Debug("document written",
		zap.String("format", string(format)),
		zap.String("path", path),
		zap.Int("bytes", len(data)),
		zap.Int("sections", len(doc.Sections)),
	)
	return nil
}

// writeFileAtomic writes through a temp file in the destination directory so
// a failed write leaves nothing at path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("finalize file: %w", err)
	}
	return nil
}
