package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"payroll-export/internal/domain"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"

	// CreatedAtLayout is the stored form of created_at.
	CreatedAtLayout = "2006-01-02 15:04:05"
)

const payrollColumns = `
	id,
	employee_id,
	employee_name,
	department,
	job_title,
	basic_salary,
	social,
	basic30,
	enaa_rate,
	research,
	research_pool,
	entrepreneurship,
	supervision,
	clerical,
	development,
	fixed_additions,
	quality_bonus,
	quality_bonus_diff,
	incentive,
	substitution,
	total_salary,
	created_at`

var searchColumns = map[string]string{
	domain.FieldEmployeeID:   "employee_id",
	domain.FieldEmployeeName: "employee_name",
	domain.FieldDepartment:   "department",
	domain.FieldJobTitle:     "job_title",
}

// PayrollRepository is the append-only payroll table.
type PayrollRepository struct {
	db      *sql.DB
	dialect string
	now     func() time.Time

	// writes are serialised; reads share the lock so they never observe a
	// half-committed append from this process.
	mu sync.RWMutex
}

func NewPayrollRepository(db *sql.DB, dialect string) *PayrollRepository {
	if dialect == "" {
		dialect = DialectSQLite
	}
	return &PayrollRepository{
		db:      db,
		dialect: dialect,
		now:     time.Now,
	}
}

// WithClock replaces the timestamp source; used by tests.
func (r *PayrollRepository) WithClock(now func() time.Time) *PayrollRepository {
	r.now = now
	return r
}

// amountColumns are stored as exact decimals: NUMERIC on postgres, TEXT on
// sqlite, where NUMERIC affinity would round them through REAL.
var amountColumns = []string{
	"basic_salary",
	"social",
	"basic30",
	"enaa_rate",
	"research",
	"research_pool",
	"entrepreneurship",
	"supervision",
	"clerical",
	"development",
	"fixed_additions",
	"quality_bonus",
	"quality_bonus_diff",
	"incentive",
	"substitution",
	"total_salary",
}

func (r *PayrollRepository) schema() string {
	idColumn := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	amountType := "TEXT"
	if r.dialect == DialectPostgres {
		idColumn = "id BIGSERIAL PRIMARY KEY"
		amountType = "NUMERIC"
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS payroll (\n")
	b.WriteString("\t" + idColumn + ",\n")
	for _, c := range []string{"employee_id", "employee_name", "department", "job_title"} {
		fmt.Fprintf(&b, "\t%-18s TEXT NOT NULL,\n", c)
	}
	for _, c := range amountColumns {
		fmt.Fprintf(&b, "\t%-18s %s NOT NULL,\n", c, amountType)
	}
	b.WriteString("\tcreated_at         TEXT NOT NULL\n)")
	return b.String()
}

// EnsureSchema creates the payroll table if it does not exist yet.
func (r *PayrollRepository) EnsureSchema(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.db.ExecContext(ctx, r.schema()); err != nil {
		return &domain.StorageError{Op: "ensure schema", Err: err}
	}
	return nil
}

// rebind turns ? placeholders into $n for postgres.
func (r *PayrollRepository) rebind(query string) string {
	if r.dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	n := 1
	for _, ch := range query {
		if ch == '?' {
			b.WriteString("$" + strconv.Itoa(n))
			n++
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

// containsExpr is a case-sensitive substring test on the given column.
func (r *PayrollRepository) containsExpr(column string) string {
	if r.dialect == DialectPostgres {
		return fmt.Sprintf("strpos(%s, ?) > 0", column)
	}
	return fmt.Sprintf("instr(%s, ?) > 0", column)
}

func (r *PayrollRepository) Append(ctx context.Context, b domain.PayrollBreakdown) (domain.PayrollRecord, error) {
	const op = "append payroll record"

	r.mu.Lock()
	defer r.mu.Unlock()

	createdAt := r.now().Truncate(time.Second)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.PayrollRecord{}, &domain.StorageError{Op: op, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	query := r.rebind(`
		INSERT INTO payroll (
			employee_id, employee_name, department, job_title,
			basic_salary, social, basic30, enaa_rate,
			research, research_pool, entrepreneurship, supervision,
			clerical, development, fixed_additions,
			quality_bonus, quality_bonus_diff, incentive, substitution,
			total_salary, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	var id int64
	if err := tx.QueryRowContext(ctx, query,
		b.EmployeeID,
		b.EmployeeName,
		b.Department,
		b.JobTitle,
		b.BasicSalary,
		b.Social,
		b.Basic30,
		b.Enaa,
		b.Research,
		b.ResearchPool,
		b.Entrepreneurship,
		b.Supervision,
		b.Clerical,
		b.Development,
		b.FixedAdditions,
		b.QualityBonus,
		b.QualityBonusDiff,
		b.Incentive,
		b.Substitution,
		b.TotalSalary,
		createdAt.Format(CreatedAtLayout),
	).Scan(&id); err != nil {
		return domain.PayrollRecord{}, &domain.StorageError{Op: op, Err: err}
	}

	if err := tx.Commit(); err != nil {
		return domain.PayrollRecord{}, &domain.StorageError{Op: op, Err: err}
	}

	return domain.PayrollRecord{
		ID:               id,
		PayrollBreakdown: b,
		CreatedAt:        createdAt,
	}, nil
}

func (r *PayrollRepository) ListAll(ctx context.Context) ([]domain.PayrollRecord, error) {
	return r.query(ctx, "list payroll records",
		"SELECT "+payrollColumns+" FROM payroll ORDER BY id ASC")
}

// Search returns records whose field contains pattern (case-sensitive).
// An empty pattern lists everything.
func (r *PayrollRepository) Search(ctx context.Context, field, pattern string) ([]domain.PayrollRecord, error) {
	const op = "search payroll records"

	column, ok := searchColumns[field]
	if !ok {
		return nil, domain.NewValidationError(op, "field",
			fmt.Sprintf("%q is not searchable, expected one of %s", field, strings.Join(domain.SearchFields, ", ")))
	}

	if pattern == "" {
		return r.ListAll(ctx)
	}

	query := "SELECT " + payrollColumns + " FROM payroll WHERE " + r.containsExpr(column) + " ORDER BY id ASC"
	return r.query(ctx, op, r.rebind(query), pattern)
}

func (r *PayrollRepository) Get(ctx context.Context, id int64) (domain.PayrollRecord, error) {
	const op = "get payroll record"

	records, err := r.query(ctx, op,
		r.rebind("SELECT "+payrollColumns+" FROM payroll WHERE id = ?"), id)
	if err != nil {
		return domain.PayrollRecord{}, err
	}
	if len(records) == 0 {
		return domain.PayrollRecord{}, fmt.Errorf("%s %d: %w", op, id, domain.ErrRecordNotFound)
	}
	return records[0], nil
}

func (r *PayrollRepository) query(ctx context.Context, op, query string, args ...any) ([]domain.PayrollRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &domain.StorageError{Op: op, Err: err}
	}
	defer rows.Close()

	result := []domain.PayrollRecord{}

	for rows.Next() {
		var (
			rec       domain.PayrollRecord
			createdAt string
		)

		if err := rows.Scan(
			&rec.ID,
			&rec.EmployeeID,
			&rec.EmployeeName,
			&rec.Department,
			&rec.JobTitle,
			&rec.BasicSalary,
			&rec.Social,
			&rec.Basic30,
			&rec.Enaa,
			&rec.Research,
			&rec.ResearchPool,
			&rec.Entrepreneurship,
			&rec.Supervision,
			&rec.Clerical,
			&rec.Development,
			&rec.FixedAdditions,
			&rec.QualityBonus,
			&rec.QualityBonusDiff,
			&rec.Incentive,
			&rec.Substitution,
			&rec.TotalSalary,
			&createdAt,
		); err != nil {
			return nil, &domain.StorageError{Op: op, Err: err}
		}

		ts, err := time.ParseInLocation(CreatedAtLayout, createdAt, time.Local)
		if err != nil {
			return nil, &domain.StorageError{Op: op, Err: fmt.Errorf("bad created_at %q: %w", createdAt, err)}
		}
		rec.CreatedAt = ts

		result = append(result, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, &domain.StorageError{Op: op, Err: err}
	}

	return result, nil
}

// IsNotFound reports whether err means the requested record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrRecordNotFound)
}
