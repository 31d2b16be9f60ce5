package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"payroll-export/internal/clients"
	"payroll-export/internal/domain"
	"payroll-export/internal/export"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStatus struct {
	mu     sync.Mutex
	values map[string]string
	sets   map[string]map[string]struct{}
}

func newMemStatus() *memStatus {
	return &memStatus{values: map[string]string{}, sets: map[string]map[string]struct{}{}}
}

func (m *memStatus) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value.(string)
	return nil
}

func (m *memStatus) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", errors.New("missing")
	}
	return v, nil
}

func (m *memStatus) SAdd(_ context.Context, key string, members ...any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sets[key] == nil {
		m.sets[key] = map[string]struct{}{}
	}
	for _, mem := range members {
		m.sets[key][mem.(string)] = struct{}{}
	}
	return nil
}

func (m *memStatus) SMembers(_ context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []string{}
	for k := range m.sets[key] {
		out = append(out, k)
	}
	return out, nil
}

func (m *memStatus) SRem(_ context.Context, key string, members ...any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mem := range members {
		delete(m.sets[key], mem.(string))
	}
	return nil
}

func (m *memStatus) status(t *testing.T, key string) ExportStatus {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	var st ExportStatus
	require.NoError(t, json.Unmarshal([]byte(m.values[key]), &st))
	return st
}

type recNotifier struct {
	events []string
	url    string
}

func (n *recNotifier) NotifyExportProgress(_ context.Context, _, _ string, progress float64, stage string) error {
	n.events = append(n.events, "progress:"+stage)
	return nil
}

func (n *recNotifier) NotifyExportComplete(_ context.Context, _, _, url, _ string) error {
	n.events = append(n.events, "complete")
	n.url = url
	return nil
}

func (n *recNotifier) NotifyExportFailed(_ context.Context, _, _, _ string) error {
	n.events = append(n.events, "failed")
	return nil
}

type fakeUploader struct {
	err      error
	uploaded map[string][]byte
}

func (u *fakeUploader) Upload(_ context.Context, fileName, _ string, data []byte) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	u.uploaded[fileName] = data
	return "payroll/" + fileName, nil
}

func (u *fakeUploader) GetTemporaryURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://s3.example.com/" + key + "?X-Amz-Signature=abc", nil
}

type exportFixture struct {
	svc      *ExportService
	payroll  *PayrollService
	storage  *clients.StorageClient
	status   *memStatus
	notifier *recNotifier
}

func newExportFixture(t *testing.T, uploader Uploader) *exportFixture {
	t.Helper()

	storage, err := clients.NewLocalStorage(t.TempDir(), "/files", "")
	require.NoError(t, err)

	f := &exportFixture{
		payroll:  newTestPayroll(t),
		storage:  storage,
		status:   newMemStatus(),
		notifier: &recNotifier{},
	}
	deps := ExportDeps{
		Payroll:  f.payroll,
		Storage:  storage,
		Status:   f.status,
		Notifier: f.notifier,
	}
	if uploader != nil {
		deps.Uploader = uploader
	}
	f.svc = NewExportService(deps)
	return f
}

func storedFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestExportService_ExportBreakdown(t *testing.T) {
	f := newExportFixture(t, nil)
	ctx := context.Background()

	b := mustCompute(t, "E1", "Ahmed", "Graphics", "tier A")
	res, err := f.svc.ExportBreakdown(ctx, b, ExportRequest{
		ClientID: "c1",
		Format:   export.FormatXLSX,
		Options:  export.Options{Language: export.English},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Records)
	assert.True(t, strings.HasSuffix(res.FileName, ".xlsx"))
	assert.Contains(t, res.FileName, "payroll_report_")
	assert.Equal(t, "/files/"+res.FileName, res.FileURL)
	assert.Equal(t, []string{res.FileName}, storedFiles(t, f.storage.BaseDir))

	st := f.status.status(t, exportKeyPrefix+res.ExportID)
	assert.Equal(t, float64(100), st.Progress)
	require.NotNil(t, st.FileURL)
	assert.Equal(t, res.FileURL, *st.FileURL)
	assert.Equal(t, "c1", st.ClientID)
	assert.Empty(t, st.Error)

	assert.Equal(t, []string{"progress:queued", "progress:rendering", "progress:ready", "complete"}, f.notifier.events)
	assert.Equal(t, res.FileURL, f.notifier.url)
}

func TestExportService_ExportRecordsEmptyStore(t *testing.T) {
	f := newExportFixture(t, nil)

	_, err := f.svc.ExportRecords(context.Background(), "", "", ExportRequest{
		ClientID: "c1",
		Format:   export.FormatDOCX,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmptyRecordSet)
	assert.Empty(t, storedFiles(t, f.storage.BaseDir))
	assert.Equal(t, "failed", f.notifier.events[len(f.notifier.events)-1])

	keys, err := f.status.SMembers(context.Background(), exportSetKey)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	st := f.status.status(t, keys[0])
	assert.NotEmpty(t, st.Error)
	assert.Nil(t, st.FileURL)
}

func TestExportService_ExportRecordsSearch(t *testing.T) {
	f := newExportFixture(t, nil)
	ctx := context.Background()

	_, err := f.payroll.Append(ctx, mustCompute(t, "E1", "Ahmed", "Graphics", "tier A"))
	require.NoError(t, err)
	_, err = f.payroll.Append(ctx, mustCompute(t, "E2", "Mona", "Decor", "tier C"))
	require.NoError(t, err)

	res, err := f.svc.ExportRecords(ctx, domain.FieldDepartment, "Graph", ExportRequest{Format: export.FormatDOCX})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Records)
	assert.Contains(t, res.FileName, "payroll_data_")

	_, err = f.svc.ExportRecords(ctx, "salary", "1", ExportRequest{Format: export.FormatDOCX})
	assert.True(t, domain.IsValidation(err))
}

func TestExportService_Upload(t *testing.T) {
	ctx := context.Background()
	b := mustCompute(t, "E1", "Ahmed", "Graphics", "tier A")
	req := ExportRequest{ClientID: "c1", Format: export.FormatDOCX, Options: export.Options{Language: export.English}}

	t.Run("presigned url", func(t *testing.T) {
		up := &fakeUploader{uploaded: map[string][]byte{}}
		f := newExportFixture(t, up)

		res, err := f.svc.ExportBreakdown(ctx, b, req)
		require.NoError(t, err)
		assert.Equal(t, "https://s3.example.com/payroll/"+res.FileName+"?X-Amz-Signature=abc", res.FileURL)
		assert.NotEmpty(t, up.uploaded[res.FileName])
		assert.Contains(t, f.notifier.events, "progress:uploading")
	})

	t.Run("falls back to local file", func(t *testing.T) {
		f := newExportFixture(t, &fakeUploader{err: errors.New("bucket gone")})

		res, err := f.svc.ExportBreakdown(ctx, b, req)
		require.NoError(t, err)
		assert.Equal(t, "/files/"+res.FileName, res.FileURL)
	})
}

func TestExportService_StatusDisabled(t *testing.T) {
	storage, err := clients.NewLocalStorage(t.TempDir(), "", "")
	require.NoError(t, err)
	svc := NewExportService(ExportDeps{Payroll: newTestPayroll(t), Storage: storage})

	_, err = svc.GetExports(context.Background(), "c1")
	assert.ErrorIs(t, err, ErrStatusUnavailable)
	_, err = svc.GetExport(context.Background(), "x", "c1")
	assert.ErrorIs(t, err, ErrStatusUnavailable)

	_, err = svc.ExportBreakdown(context.Background(), mustCompute(t, "E1", "Ahmed", "Graphics", "tier A"),
		ExportRequest{Format: export.FormatXLSX})
	assert.NoError(t, err)
}

func statusJSON(t *testing.T, st ExportStatus) string {
	t.Helper()
	data, err := json.Marshal(st)
	require.NoError(t, err)
	return string(data)
}

func newRedisExportService(t *testing.T) (*ExportService, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	svc := NewExportService(ExportDeps{Status: clients.NewRedisClientFromConn(db, "")})
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc, mock
}

func TestExportService_GetExports(t *testing.T) {
	svc, mock := newRedisExportService(t)
	ctx := context.Background()

	now := svc.now()
	url := "/files/a.xlsx"
	older := ExportStatus{Key: exportKeyPrefix + "old", Type: ExportTypeSingle, ClientID: "c1", Progress: 100, FileURL: &url, Created: now.Add(-2 * time.Hour)}
	newer := ExportStatus{Key: exportKeyPrefix + "new", Type: ExportTypeRecords, ClientID: "c1", Progress: 10, Created: now.Add(-5 * time.Minute)}
	other := ExportStatus{Key: exportKeyPrefix + "other", ClientID: "c2", Created: now}

	mock.ExpectSMembers("payroll_export_export_ids").SetVal([]string{older.Key, "gone", newer.Key, other.Key})
	mock.ExpectGet("payroll_export_" + older.Key).SetVal(statusJSON(t, older))
	mock.ExpectGet("payroll_export_gone").RedisNil()
	mock.ExpectGet("payroll_export_" + newer.Key).SetVal(statusJSON(t, newer))
	mock.ExpectGet("payroll_export_" + other.Key).SetVal(statusJSON(t, other))
	mock.ExpectSRem("payroll_export_export_ids", "gone").SetVal(1)

	exports, err := svc.GetExports(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, exports, 2)
	assert.Equal(t, newer.Key, exports[0]["key"])
	assert.Equal(t, "5 minutes ago", exports[0]["created_ago"])
	assert.Equal(t, older.Key, exports[1]["key"])
	assert.Equal(t, "2 hours ago", exports[1]["created_ago"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportService_GetExport(t *testing.T) {
	ctx := context.Background()

	t.Run("found without prefix", func(t *testing.T) {
		svc, mock := newRedisExportService(t)
		st := ExportStatus{Key: exportKeyPrefix + "abc", ClientID: "c1", Error: "boom", Created: svc.now()}
		mock.ExpectGet("payroll_export_" + st.Key).SetVal(statusJSON(t, st))

		got, err := svc.GetExport(ctx, "abc", "c1")
		require.NoError(t, err)
		assert.Equal(t, "boom", got["error"])
		assert.Equal(t, "just now", got["created_ago"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("expired", func(t *testing.T) {
		svc, mock := newRedisExportService(t)
		mock.ExpectGet("payroll_export_" + exportKeyPrefix + "abc").RedisNil()

		_, err := svc.GetExport(ctx, exportKeyPrefix+"abc", "c1")
		assert.ErrorIs(t, err, ErrExportNotFound)
	})

	t.Run("other client", func(t *testing.T) {
		svc, mock := newRedisExportService(t)
		st := ExportStatus{Key: exportKeyPrefix + "abc", ClientID: "c2", Created: svc.now()}
		mock.ExpectGet("payroll_export_" + st.Key).SetVal(statusJSON(t, st))

		_, err := svc.GetExport(ctx, "abc", "c1")
		assert.ErrorIs(t, err, ErrExportNotFound)
	})
}

func TestHumanizeAgo(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		at   time.Time
		want string
	}{
		{now.Add(time.Minute), "just now"},
		{now.Add(-30 * time.Second), "just now"},
		{now.Add(-time.Minute), "1 minute ago"},
		{now.Add(-59 * time.Minute), "59 minutes ago"},
		{now.Add(-time.Hour), "1 hour ago"},
		{now.Add(-49 * time.Hour), "2 days ago"},
		{now.Add(-40 * 24 * time.Hour), "2024-01-21 12:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, humanizeAgo(now, tt.at))
	}
}
