package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"payroll-export/internal/clients"
	"payroll-export/internal/domain"
	"payroll-export/internal/export"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrStatusUnavailable = errors.New("export status tracking is not configured")
	ErrExportNotFound    = errors.New("export not found")
)

const (
	exportSetKey    = "export_ids"
	exportKeyPrefix = "payroll_exports:"
	exportTTL       = 20 * time.Minute
	presignTTL      = 48 * time.Hour
)

const (
	ExportTypeSingle  = "single"
	ExportTypeRecords = "records"
)

type ExportStatus struct {
	Key      string    `json:"key"`
	Type     string    `json:"type"`
	Format   string    `json:"format"`
	ClientID string    `json:"client_id"`
	Progress float64   `json:"progress"`
	FileURL  *string   `json:"file_url"`
	Records  int       `json:"records"`
	Error    string    `json:"error,omitempty"`
	Created  time.Time `json:"created_at"`
}

type StatusStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	SAdd(ctx context.Context, key string, members ...any) error
	SMembers(ctx context.Context, key string) ([]string, error)
	SRem(ctx context.Context, key string, members ...any) error
}

type Notifier interface {
	NotifyExportProgress(ctx context.Context, clientID, exportID string, progress float64, stage string) error
	NotifyExportComplete(ctx context.Context, clientID, exportID, url, filename string) error
	NotifyExportFailed(ctx context.Context, clientID, exportID, errMsg string) error
}

type FileStorage interface {
	Reserve(fileName string) (name, path string)
	GetURL(name string) string
}

type Uploader interface {
	Upload(ctx context.Context, fileName, contentType string, data []byte) (string, error)
	GetTemporaryURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ExportRequest is what a caller chooses for one export.
type ExportRequest struct {
	ClientID string
	Format   export.Format
	Options  export.Options
}

type ExportResult struct {
	ExportID string `json:"export_id"`
	FileName string `json:"file_name"`
	FileURL  string `json:"file_url"`
	Records  int    `json:"records"`
}

// ExportService runs exports into local storage, tracks their status and
// tells the requesting client how they went.
type ExportService struct {
	payroll Payroll
	storage FileStorage
	status  StatusStore
	ws      Notifier
	s3      Uploader
	log     *zap.Logger
	now     func() time.Time
}

type ExportDeps struct {
	Payroll Payroll
	Storage FileStorage
	// Status, Notifier and Uploader are optional.
	Status   StatusStore
	Notifier Notifier
	Uploader Uploader
	Log      *zap.Logger
}

func NewExportService(deps ExportDeps) *ExportService {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &ExportService{
		payroll: deps.Payroll,
		storage: deps.Storage,
		status:  deps.Status,
		ws:      deps.Notifier,
		s3:      deps.Uploader,
		log:     log.Named("export"),
		now:     time.Now,
	}
}

func (s *ExportService) saveExportStatus(ctx context.Context, st *ExportStatus) {
	if s.status == nil {
		return
	}

	data, err := json.Marshal(st)
	if err != nil {
		s.log.Warn("marshal export status", zap.Error(err))
		return
	}
	if err := s.status.Set(ctx, st.Key, string(data), exportTTL); err != nil {
		s.log.Warn("save export status", zap.String("key", st.Key), zap.Error(err))
		return
	}
	if err := s.status.SAdd(ctx, exportSetKey, st.Key); err != nil {
		s.log.Warn("index export status", zap.String("key", st.Key), zap.Error(err))
	}
}

func (s *ExportService) progress(ctx context.Context, st *ExportStatus, progress float64, stage string) {
	st.Progress = progress
	s.saveExportStatus(ctx, st)
	if s.ws != nil {
		if err := s.ws.NotifyExportProgress(ctx, st.ClientID, st.Key, progress, stage); err != nil {
			s.log.Warn("notify progress", zap.Error(err))
		}
	}
}

func (s *ExportService) fail(ctx context.Context, st *ExportStatus, err error) {
	st.Error = err.Error()
	s.saveExportStatus(ctx, st)
	if s.ws != nil {
		if nerr := s.ws.NotifyExportFailed(ctx, st.ClientID, st.Key, err.Error()); nerr != nil {
			s.log.Warn("notify failure", zap.Error(nerr))
		}
	}
	s.log.Warn("export failed",
		zap.String("export_id", st.Key),
		zap.String("type", st.Type),
		zap.String("format", st.Format),
		zap.Error(err),
	)
}

func (s *ExportService) newStatus(kind string, req ExportRequest, records int) *ExportStatus {
	return &ExportStatus{
		Key:      exportKeyPrefix + uuid.NewString(),
		Type:     kind,
		Format:   string(req.Format),
		ClientID: req.ClientID,
		Records:  records,
		Created:  s.now(),
	}
}

func (s *ExportService) fileName(kind string, format export.Format) string {
	base := "payroll_data"
	if kind == ExportTypeSingle {
		base = "payroll_report"
	}
	return fmt.Sprintf("%s_%s%s", base, s.now().Format("20060102_150405"), format.Extension())
}

// ExportBreakdown exports one breakdown, computed or loaded by the caller.
func (s *ExportService) ExportBreakdown(ctx context.Context, b domain.PayrollBreakdown, req ExportRequest) (ExportResult, error) {
	st := s.newStatus(ExportTypeSingle, req, 1)
	return s.run(ctx, st, req, func(path string) error {
		return s.payroll.ExportSingle(ctx, b, req.Format, path, req.Options)
	})
}

// ExportRecords exports the records matching field/pattern; an empty
// pattern exports everything stored.
func (s *ExportService) ExportRecords(ctx context.Context, field, pattern string, req ExportRequest) (ExportResult, error) {
	var records []domain.PayrollRecord
	var err error
	if field == "" && pattern == "" {
		records, err = s.payroll.ListAll(ctx)
	} else {
		records, err = s.payroll.Search(ctx, field, pattern)
	}
	if err != nil {
		return ExportResult{}, err
	}

	st := s.newStatus(ExportTypeRecords, req, len(records))
	return s.run(ctx, st, req, func(path string) error {
		return s.payroll.ExportMany(ctx, records, req.Format, path, req.Options)
	})
}

func (s *ExportService) run(ctx context.Context, st *ExportStatus, req ExportRequest, write func(path string) error) (ExportResult, error) {
	s.progress(ctx, st, 0, "queued")

	fileName := s.fileName(st.Type, req.Format)
	stored, path := s.storage.Reserve(fileName)

	s.progress(ctx, st, 10, "rendering")
	if err := write(path); err != nil {
		s.fail(ctx, st, err)
		return ExportResult{}, err
	}

	url := s.storage.GetURL(stored)
	if s.s3 != nil {
		s.progress(ctx, st, 90, "uploading")
		if remote, err := s.upload(ctx, stored, path, req.Format); err != nil {
			s.log.Warn("upload failed, serving local file", zap.String("file", stored), zap.Error(err))
		} else {
			url = remote
		}
	}

	st.FileURL = &url
	s.progress(ctx, st, 100, "ready")
	if s.ws != nil {
		if err := s.ws.NotifyExportComplete(ctx, st.ClientID, st.Key, url, fileName); err != nil {
			s.log.Warn("notify complete", zap.Error(err))
		}
	}

	s.log.Info("export finished",
		zap.String("export_id", st.Key),
		zap.String("type", st.Type),
		zap.String("format", st.Format),
		zap.Int("records", st.Records),
		zap.String("file", stored),
	)

	return ExportResult{
		ExportID: strings.TrimPrefix(st.Key, exportKeyPrefix),
		FileName: stored,
		FileURL:  url,
		Records:  st.Records,
	}, nil
}

func (s *ExportService) upload(ctx context.Context, stored, path string, format export.Format) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	key, err := s.s3.Upload(ctx, stored, format.ContentType(), data)
	if err != nil {
		return "", err
	}
	return s.s3.GetTemporaryURL(ctx, key, presignTTL)
}

// GetExports lists the statuses still cached for a client, newest first.
// An empty clientID lists every client's exports.
func (s *ExportService) GetExports(ctx context.Context, clientID string) ([]map[string]any, error) {
	if s.status == nil {
		return nil, ErrStatusUnavailable
	}

	keys, err := s.status.SMembers(ctx, exportSetKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get export keys: %w", err)
	}

	var statuses []ExportStatus
	var expired []any
	for _, key := range keys {
		data, err := s.status.Get(ctx, key)
		if clients.IsNil(err) {
			expired = append(expired, key)
			continue
		}
		if err != nil {
			continue
		}

		var status ExportStatus
		if err := json.Unmarshal([]byte(data), &status); err != nil {
			continue
		}
		if clientID == "" || status.ClientID == clientID {
			statuses = append(statuses, status)
		}
	}

	if len(expired) > 0 {
		if err := s.status.SRem(ctx, exportSetKey, expired...); err != nil {
			s.log.Warn("prune expired export ids", zap.Error(err))
		}
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Created.After(statuses[j].Created)
	})

	exports := make([]map[string]any, 0, len(statuses))
	for _, status := range statuses {
		exports = append(exports, s.statusView(status))
	}
	return exports, nil
}

// GetExport accepts the id with or without its key prefix.
func (s *ExportService) GetExport(ctx context.Context, exportID, clientID string) (map[string]any, error) {
	if s.status == nil {
		return nil, ErrStatusUnavailable
	}

	key := exportID
	if !strings.HasPrefix(key, exportKeyPrefix) {
		key = exportKeyPrefix + key
	}

	data, err := s.status.Get(ctx, key)
	if clients.IsNil(err) {
		return nil, ErrExportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get export status: %w", err)
	}

	var status ExportStatus
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return nil, fmt.Errorf("failed to parse export status: %w", err)
	}
	if clientID != "" && status.ClientID != clientID {
		return nil, ErrExportNotFound
	}

	return s.statusView(status), nil
}

func (s *ExportService) statusView(status ExportStatus) map[string]any {
	view := map[string]any{
		"key":         status.Key,
		"type":        status.Type,
		"format":      status.Format,
		"client_id":   status.ClientID,
		"progress":    status.Progress,
		"file_url":    status.FileURL,
		"records":     status.Records,
		"created_at":  status.Created.Format(time.RFC3339),
		"created_ago": humanizeAgo(s.now(), status.Created),
	}
	if status.Error != "" {
		view["error"] = status.Error
	}
	return view
}

func humanizeAgo(now, t time.Time) string {
	if t.After(now) {
		return "just now"
	}

	minutes := int(now.Sub(t).Minutes())
	switch {
	case minutes < 1:
		return "just now"
	case minutes < 60:
		return plural(minutes, "minute") + " ago"
	}
	hours := minutes / 60
	if hours < 24 {
		return plural(hours, "hour") + " ago"
	}
	days := hours / 24
	if days < 30 {
		return plural(days, "day") + " ago"
	}
	return t.Format("2006-01-02 15:04")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
