package service

import (
	"context"
	"strings"

	"payroll-export/internal/domain"
	"payroll-export/internal/export"

	"go.uber.org/zap"
)

type PayrollRepository interface {
	Append(ctx context.Context, b domain.PayrollBreakdown) (domain.PayrollRecord, error)
	ListAll(ctx context.Context) ([]domain.PayrollRecord, error)
	Search(ctx context.Context, field, pattern string) ([]domain.PayrollRecord, error)
	Get(ctx context.Context, id int64) (domain.PayrollRecord, error)
}

type DocumentExporter interface {
	ExportSingle(ctx context.Context, b domain.PayrollBreakdown, format export.Format, path string, opts export.Options) error
	ExportMany(ctx context.Context, records []domain.PayrollRecord, format export.Format, path string, opts export.Options) error
}

// Payroll is everything a front end needs: compute, persist, query, export.
type Payroll interface {
	Compute(in domain.PayrollInput) (domain.PayrollBreakdown, error)
	Append(ctx context.Context, b domain.PayrollBreakdown) (domain.PayrollRecord, error)
	ListAll(ctx context.Context) ([]domain.PayrollRecord, error)
	Search(ctx context.Context, field, pattern string) ([]domain.PayrollRecord, error)
	Get(ctx context.Context, id int64) (domain.PayrollRecord, error)
	ExportSingle(ctx context.Context, b domain.PayrollBreakdown, format export.Format, path string, opts export.Options) error
	ExportMany(ctx context.Context, records []domain.PayrollRecord, format export.Format, path string, opts export.Options) error
}

type PayrollService struct {
	repo     PayrollRepository
	exporter DocumentExporter
	log      *zap.Logger
}

var _ Payroll = (*PayrollService)(nil)

func NewPayrollService(repo PayrollRepository, exporter DocumentExporter, log *zap.Logger) *PayrollService {
	if log == nil {
		log = zap.NewNop()
	}
	return &PayrollService{
		repo:     repo,
		exporter: exporter,
		log:      log.Named("payroll"),
	}
}

func (s *PayrollService) Compute(in domain.PayrollInput) (domain.PayrollBreakdown, error) {
	return Compute(in)
}

// Append persists a breakdown. The total is checked against its components
// so a stored row always reproduces.
func (s *PayrollService) Append(ctx context.Context, b domain.PayrollBreakdown) (domain.PayrollRecord, error) {
	const op = "append payroll record"

	if err := validateIdentity(op, b.PayrollInput); err != nil {
		return domain.PayrollRecord{}, err
	}
	if !b.ComponentSum().Equal(b.TotalSalary) {
		return domain.PayrollRecord{}, domain.NewValidationError(op, "total_salary", "does not equal the sum of its components")
	}

	rec, err := s.repo.Append(ctx, b)
	if err != nil {
		s.log.Error("append failed", zap.String("employee_id", b.EmployeeID), zap.Error(err))
		return domain.PayrollRecord{}, err
	}

	s.log.Info("payroll record stored",
		zap.Int64("id", rec.ID),
		zap.String("employee_id", rec.EmployeeID),
		zap.String("job_title", rec.JobTitle),
		zap.String("total_salary", rec.TotalSalary.StringFixed(2)),
	)
	return rec, nil
}

func (s *PayrollService) ListAll(ctx context.Context) ([]domain.PayrollRecord, error) {
	return s.repo.ListAll(ctx)
}

func (s *PayrollService) Search(ctx context.Context, field, pattern string) ([]domain.PayrollRecord, error) {
	return s.repo.Search(ctx, strings.TrimSpace(field), pattern)
}

func (s *PayrollService) Get(ctx context.Context, id int64) (domain.PayrollRecord, error) {
	return s.repo.Get(ctx, id)
}

func (s *PayrollService) ExportSingle(ctx context.Context, b domain.PayrollBreakdown, format export.Format, path string, opts export.Options) error {
	if err := s.exporter.ExportSingle(ctx, b, format, path, opts); err != nil {
		s.log.Warn("single export failed", zap.String("format", string(format)), zap.Error(err))
		return err
	}
	return nil
}

// ExportMany exports a snapshot; callers pass what ListAll or Search returned.
func (s *PayrollService) ExportMany(ctx context.Context, records []domain.PayrollRecord, format export.Format, path string, opts export.Options) error {
	if err := s.exporter.ExportMany(ctx, records, format, path, opts); err != nil {
		s.log.Warn("records export failed",
			zap.String("format", string(format)),
			zap.Int("records", len(records)),
			zap.Error(err),
		)
		return err
	}
	return nil
}
