package rest

import (
	"net/http"
	"strconv"
	"time"

	"payroll-export/internal/domain"
	"payroll-export/internal/export"
	"payroll-export/internal/service"

	"github.com/go-chi/chi/v5"
)

// breakdownJSON renders amounts with two decimals, as they are displayed.
type breakdownJSON struct {
	EmployeeID       string `json:"employee_id"`
	EmployeeName     string `json:"employee_name"`
	Department       string `json:"department"`
	JobTitle         string `json:"job_title"`
	BasicSalary      string `json:"basic_salary"`
	Social           string `json:"social"`
	Basic30          string `json:"basic30"`
	Enaa             string `json:"enaa"`
	Research         string `json:"research"`
	ResearchPool     string `json:"research_pool"`
	Entrepreneurship string `json:"entrepreneurship"`
	Supervision      string `json:"supervision"`
	Clerical         string `json:"clerical"`
	Development      string `json:"development"`
	FixedAdditions   string `json:"fixed_additions"`
	Substitution     string `json:"substitution"`
	QualityBonus     string `json:"quality_bonus"`
	QualityBonusDiff string `json:"quality_bonus_diff"`
	Incentive        string `json:"incentive"`
	TotalSalary      string `json:"total_salary"`
}

type recordJSON struct {
	ID int64 `json:"id"`
	breakdownJSON
	CreatedAt string `json:"created_at"`
}

func toBreakdownJSON(b domain.PayrollBreakdown) breakdownJSON {
	return breakdownJSON{
		EmployeeID:       b.EmployeeID,
		EmployeeName:     b.EmployeeName,
		Department:       b.Department,
		JobTitle:         b.JobTitle,
		BasicSalary:      b.BasicSalary.StringFixed(2),
		Social:           b.Social.StringFixed(2),
		Basic30:          b.Basic30.StringFixed(2),
		Enaa:             b.Enaa.StringFixed(2),
		Research:         b.Research.StringFixed(2),
		ResearchPool:     b.ResearchPool.StringFixed(2),
		Entrepreneurship: b.Entrepreneurship.StringFixed(2),
		Supervision:      b.Supervision.StringFixed(2),
		Clerical:         b.Clerical.StringFixed(2),
		Development:      b.Development.StringFixed(2),
		FixedAdditions:   b.FixedAdditions.StringFixed(2),
		Substitution:     b.Substitution.StringFixed(2),
		QualityBonus:     b.QualityBonus.StringFixed(2),
		QualityBonusDiff: b.QualityBonusDiff.StringFixed(2),
		Incentive:        b.Incentive.StringFixed(2),
		TotalSalary:      b.TotalSalary.StringFixed(2),
	}
}

func toRecordJSON(rec domain.PayrollRecord) recordJSON {
	return recordJSON{
		ID:            rec.ID,
		breakdownJSON: toBreakdownJSON(rec.PayrollBreakdown),
		CreatedAt:     rec.CreatedAt.Format(time.DateTime),
	}
}

func (h *Handler) compute(r *http.Request) (domain.PayrollBreakdown, error) {
	raw, err := ValidatePayrollRequest(r)
	if err != nil {
		return domain.PayrollBreakdown{}, err
	}
	return h.computeRaw(raw)
}

func (h *Handler) computeRaw(raw service.RawPayrollInput) (domain.PayrollBreakdown, error) {
	in, err := service.ParseInput(raw)
	if err != nil {
		return domain.PayrollBreakdown{}, err
	}
	return h.payroll.Compute(in)
}

func (h *Handler) computePayroll(w http.ResponseWriter, r *http.Request) {
	b, err := h.compute(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	Success(w, "", toBreakdownJSON(b))
}

func (h *Handler) appendPayroll(w http.ResponseWriter, r *http.Request) {
	b, err := h.compute(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	rec, err := h.payroll.Append(r.Context(), b)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	SuccessCreated(w, "payroll record stored", toRecordJSON(rec))
}

func (h *Handler) listPayroll(w http.ResponseWriter, r *http.Request) {
	field := r.URL.Query().Get("field")
	pattern := r.URL.Query().Get("q")

	var (
		records []domain.PayrollRecord
		err     error
	)
	if field == "" && pattern == "" {
		records, err = h.payroll.ListAll(r.Context())
	} else {
		records, err = h.payroll.Search(r.Context(), field, pattern)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]recordJSON, 0, len(records))
	for _, rec := range records {
		out = append(out, toRecordJSON(rec))
	}
	Success(w, "", out)
}

func (h *Handler) getPayroll(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		ErrorBadRequest(w, "id must be an integer")
		return
	}

	rec, err := h.payroll.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	Success(w, "", toRecordJSON(rec))
}

type optionsJSON struct {
	JobTitles   []string `json:"job_titles"`
	Departments []string `json:"departments"`
	Fields      []string `json:"fields"`
	Formats     []string `json:"formats"`
	Layouts     []string `json:"layouts"`
}

// payrollOptions lists the values a form offers: job titles, suggested
// departments and what an export accepts.
func (h *Handler) payrollOptions(w http.ResponseWriter, r *http.Request) {
	Success(w, "options", optionsJSON{
		JobTitles:   domain.JobTitles(),
		Departments: domain.Departments(),
		Fields:      export.ColumnKeys(),
		Formats:     []string{string(export.FormatPDF), string(export.FormatXLSX), string(export.FormatDOCX)},
		Layouts:     []string{string(export.LayoutTable), string(export.LayoutPerRecord)},
	})
}
