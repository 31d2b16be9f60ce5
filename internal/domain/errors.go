package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRecordNotFound    = errors.New("payroll record not found")
	ErrEmptyRecordSet    = errors.New("no records to export")
	ErrFontUnavailable   = errors.New("font resource unavailable")
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// ValidationError reports bad or missing caller input.
type ValidationError struct {
	Op      string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Field, e.Message)
}

func NewValidationError(op, field, message string) *ValidationError {
	return &ValidationError{Op: op, Field: field, Message: message}
}

// StorageError wraps a failure of the durable payroll table.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: storage failure: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ExportError wraps a failure to materialise a document.
type ExportError struct {
	Op     string
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s (%s): %v", e.Op, e.Format, e.Err)
	}
	return fmt.Sprintf("%s (%s) to %q: %v", e.Op, e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

func IsExport(err error) bool {
	var ee *ExportError
	return errors.As(err, &ee)
}
