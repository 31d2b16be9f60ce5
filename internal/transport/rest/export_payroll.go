package rest

import (
	"net/http"

	"payroll-export/internal/domain"
)

func (h *Handler) exportSingle(w http.ResponseWriter, r *http.Request) {
	req, err := ValidateExportSingleRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var b domain.PayrollBreakdown
	if req.RecordID != nil {
		rec, err := h.payroll.Get(r.Context(), *req.RecordID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		b = rec.PayrollBreakdown
	} else {
		if b, err = h.computeRaw(req.Input); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	res, err := h.exports.ExportBreakdown(r.Context(), b, req.Export)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	Success(w, "export ready", res)
}

func (h *Handler) exportRecords(w http.ResponseWriter, r *http.Request) {
	req, err := ValidateExportRecordsRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.exports.ExportRecords(r.Context(), req.Field, req.Pattern, req.Export)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	Success(w, "export ready", res)
}
