package rest

import (
	"context"
	"net/http"
	"time"

	"payroll-export/internal/domain"
	"payroll-export/internal/logger"
	"payroll-export/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type PayrollService interface {
	Compute(in domain.PayrollInput) (domain.PayrollBreakdown, error)
	Append(ctx context.Context, b domain.PayrollBreakdown) (domain.PayrollRecord, error)
	ListAll(ctx context.Context) ([]domain.PayrollRecord, error)
	Search(ctx context.Context, field, pattern string) ([]domain.PayrollRecord, error)
	Get(ctx context.Context, id int64) (domain.PayrollRecord, error)
}

type PayrollExporter interface {
	ExportBreakdown(ctx context.Context, b domain.PayrollBreakdown, req service.ExportRequest) (service.ExportResult, error)
	ExportRecords(ctx context.Context, field, pattern string, req service.ExportRequest) (service.ExportResult, error)
}

type FileStore interface {
	Resolve(name string) (string, error)
}

type SocketHub interface {
	HandleWebSocket(w http.ResponseWriter, r *http.Request, clientID string)
}

type Handler struct {
	payroll    PayrollService
	exports    PayrollExporter
	exportList ExportListService
	files      FileStore
	hub        SocketHub
	log        *zap.Logger
}

type Deps struct {
	Payroll    PayrollService
	Exports    PayrollExporter
	ExportList ExportListService
	Files      FileStore
	Hub        SocketHub
	Log        *zap.Logger
}

func NewHandler(deps Deps) *Handler {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		payroll:    deps.Payroll,
		exports:    deps.Exports,
		exportList: deps.ExportList,
		files:      deps.Files,
		hub:        deps.Hub,
		log:        log.Named("http"),
	}
}

func (h *Handler) InitRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		logger.Middleware(h.log),
		middleware.Recoverer,
	)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		Success(w, "ok", nil)
	})

	r.Get("/files/{file}", h.downloadFile)
	if h.hub != nil {
		r.Get("/ws", h.serveWebSocket)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Route("/payroll", func(r chi.Router) {
			r.Get("/", h.listPayroll)
			r.Post("/", h.appendPayroll)
			r.Post("/compute", h.computePayroll)
			r.Get("/options", h.payrollOptions)
			r.Get("/{id}", h.getPayroll)
		})

		r.Route("/export", func(r chi.Router) {
			r.Get("/", h.listExports)
			r.Get("/{export_id}", h.getExport)
			r.Post("/single", h.exportSingle)
			r.Post("/records", h.exportRecords)
		})
	})

	return r
}

// clientID identifies the websocket audience of a request.
func clientID(r *http.Request) string {
	if id := r.Header.Get("X-Client-ID"); id != "" {
		return id
	}
	return r.URL.Query().Get("client_id")
}
