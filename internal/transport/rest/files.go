package rest

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"

	"payroll-export/internal/clients"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// downloadFile serves a generated document under its original name.
func (h *Handler) downloadFile(w http.ResponseWriter, r *http.Request) {
	path, err := h.files.Resolve(chi.URLParam(r, "file"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		h.log.Error("resolve file", zap.Error(err))
		http.Error(w, "failed to access file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", clients.DisplayName(filepath.Base(path))))
	http.ServeFile(w, r, path)
}

func (h *Handler) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	id := clientID(r)
	if id == "" {
		http.Error(w, "client_id required", http.StatusBadRequest)
		return
	}

	h.log.Debug("ws connect", zap.String("client_id", id))
	h.hub.HandleWebSocket(w, r, id)
}
