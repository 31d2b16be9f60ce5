package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"payroll-export/internal/domain"
	"payroll-export/internal/export"
	"payroll-export/internal/service"
)

const opDecode = "decode request"

// rawPayrollRequest accepts amounts as JSON strings or numbers.
type rawPayrollRequest struct {
	EmployeeID   any `json:"employee_id"`
	EmployeeName any `json:"employee_name"`
	Department   any `json:"department"`
	JobTitle     any `json:"job_title"`
	BasicSalary  any `json:"basic_salary"`
	Social       any `json:"social"`
	Basic30      any `json:"basic30"`
	Enaa         any `json:"enaa"`
}

type rawExportSingleRequest struct {
	rawPayrollRequest

	RecordID any      `json:"record_id"`
	Format   string   `json:"format"`
	Labels   string   `json:"labels"`
	Fields   []string `json:"fields"`
}

type rawExportRecordsRequest struct {
	Format string   `json:"format"`
	Labels string   `json:"labels"`
	Field  string   `json:"field"`
	Query  string   `json:"q"`
	Fields []string `json:"fields"`
	Layout string   `json:"layout"`
}

// ExportSingleRequest either names a stored record or carries the input to compute.
type ExportSingleRequest struct {
	RecordID *int64
	Input    service.RawPayrollInput
	Export   service.ExportRequest
}

type ExportRecordsRequest struct {
	Field   string
	Pattern string
	Export  service.ExportRequest
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return domain.NewValidationError(opDecode, "", "invalid JSON")
	}
	return nil
}

func ValidatePayrollRequest(r *http.Request) (service.RawPayrollInput, error) {
	var raw rawPayrollRequest
	if err := decodeJSON(r, &raw); err != nil {
		return service.RawPayrollInput{}, err
	}
	return raw.toInput()
}

func ValidateExportSingleRequest(r *http.Request) (*ExportSingleRequest, error) {
	var raw rawExportSingleRequest
	if err := decodeJSON(r, &raw); err != nil {
		return nil, err
	}

	req := &ExportSingleRequest{}

	recordID, err := toInt64Ptr(raw.RecordID)
	if err != nil {
		return nil, domain.NewValidationError(opDecode, "record_id", "record_id must be integer or empty")
	}
	req.RecordID = recordID

	if recordID == nil {
		if req.Input, err = raw.toInput(); err != nil {
			return nil, err
		}
	}

	if req.Export, err = exportRequest(r, raw.Format, raw.Labels, raw.Fields); err != nil {
		return nil, err
	}
	return req, nil
}

func ValidateExportRecordsRequest(r *http.Request) (*ExportRecordsRequest, error) {
	var raw rawExportRecordsRequest
	if err := decodeJSON(r, &raw); err != nil {
		return nil, err
	}

	field := strings.TrimSpace(raw.Field)
	if raw.Query != "" && field == "" {
		return nil, domain.NewValidationError(opDecode, "field", "field is required when q is set")
	}

	exp, err := exportRequest(r, raw.Format, raw.Labels, raw.Fields)
	if err != nil {
		return nil, err
	}
	if exp.Options.Layout, err = export.ParseLayout(raw.Layout); err != nil {
		return nil, err
	}

	return &ExportRecordsRequest{
		Field:   field,
		Pattern: raw.Query,
		Export:  exp,
	}, nil
}

func exportRequest(r *http.Request, format, labels string, fields []string) (service.ExportRequest, error) {
	if strings.TrimSpace(format) == "" {
		return service.ExportRequest{}, domain.NewValidationError(opDecode, "format", "format is required")
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		return service.ExportRequest{}, err
	}
	lang, err := export.ParseLanguage(labels)
	if err != nil {
		return service.ExportRequest{}, err
	}

	return service.ExportRequest{
		ClientID: clientID(r),
		Format:   f,
		Options:  export.Options{Fields: fields, Language: lang},
	}, nil
}

func (raw rawPayrollRequest) toInput() (service.RawPayrollInput, error) {
	var in service.RawPayrollInput
	fields := []struct {
		name string
		src  any
		dst  *string
	}{
		{"employee_id", raw.EmployeeID, &in.EmployeeID},
		{"employee_name", raw.EmployeeName, &in.EmployeeName},
		{"department", raw.Department, &in.Department},
		{"job_title", raw.JobTitle, &in.JobTitle},
		{"basic_salary", raw.BasicSalary, &in.BasicSalary},
		{"social", raw.Social, &in.Social},
		{"basic30", raw.Basic30, &in.Basic30},
		{"enaa", raw.Enaa, &in.Enaa},
	}
	for _, f := range fields {
		s, err := toString(f.src)
		if err != nil {
			return service.RawPayrollInput{}, domain.NewValidationError(opDecode, f.name, f.name+" must be string or number")
		}
		*f.dst = s
	}
	return in, nil
}

func toString(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	default:
		return "", fmt.Errorf("invalid type %T", v)
	}
}

func toInt64Ptr(v any) (*int64, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case json.Number:
		i, err := t.Int64()
		if err != nil {
			return nil, err
		}
		return &i, nil
	case string:
		if t == "" {
			return nil, nil
		}
		i, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return nil, err
		}
		return &i, nil
	default:
		return nil, fmt.Errorf("invalid type %T", v)
	}
}
