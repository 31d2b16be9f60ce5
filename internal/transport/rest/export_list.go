package rest

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type ExportListService interface {
	GetExports(ctx context.Context, clientID string) ([]map[string]any, error)
	GetExport(ctx context.Context, exportID, clientID string) (map[string]any, error)
}

func (h *Handler) listExports(w http.ResponseWriter, r *http.Request) {
	exports, err := h.exportList.GetExports(r.Context(), clientID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	Success(w, "", exports)
}

func (h *Handler) getExport(w http.ResponseWriter, r *http.Request) {
	exportID := chi.URLParam(r, "export_id")
	if exportID == "" {
		ErrorBadRequest(w, "export_id is required")
		return
	}

	export, err := h.exportList.GetExport(r.Context(), exportID, clientID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	Success(w, "", export)
}
