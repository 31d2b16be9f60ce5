package repository

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"payroll-export/internal/domain"
	"payroll-export/pkg/database/sqlite"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *PayrollRepository {
	t.Helper()

	db, err := sqlite.NewSQLiteConnection(sqlite.ConnectionInfo{
		Path: filepath.Join(t.TempDir(), "payroll.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewPayrollRepository(db, DialectSQLite)
	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}

func breakdown(id, name, dept, title string, basic30 int64) domain.PayrollBreakdown {
	b30 := decimal.NewFromInt(basic30)
	b := domain.PayrollBreakdown{
		PayrollInput: domain.PayrollInput{
			EmployeeID:   id,
			EmployeeName: name,
			Department:   dept,
			JobTitle:     title,
			BasicSalary:  decimal.NewFromInt(5000),
			Social:       decimal.NewFromInt(200),
			Basic30:      b30,
			Enaa:         decimal.NewFromInt(10),
		},
		Research:         b30.Mul(decimal.RequireFromString("0.775")),
		ResearchPool:     b30.Mul(decimal.RequireFromString("0.49")),
		Entrepreneurship: b30.Mul(decimal.RequireFromString("0.91")),
		Supervision:      b30.Mul(decimal.RequireFromString("1.3")),
		Clerical:         b30.Mul(decimal.RequireFromString("0.78")),
		Development:      b30.Mul(decimal.RequireFromString("0.78")),
		FixedAdditions:   decimal.RequireFromString("1754.90"),
		Substitution:     decimal.NewFromInt(3500),
		QualityBonus:     decimal.NewFromInt(4270),
		QualityBonusDiff: decimal.NewFromInt(330),
		Incentive:        decimal.NewFromInt(2600),
	}
	b.TotalSalary = b.ComponentSum()
	return b
}

func TestAppendThenListAll(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	fixed := time.Date(2024, 3, 1, 10, 30, 15, 0, time.Local)
	repo.WithClock(func() time.Time { return fixed })

	_, err := repo.Append(ctx, breakdown("E0", "Sara", "Graphics", "tier B", 800))
	require.NoError(t, err)

	in := breakdown("E1", "Ahmed", "Graphics", "tier A", 1000)
	rec, err := repo.Append(ctx, in)
	require.NoError(t, err)
	assert.Greater(t, rec.ID, int64(0))
	assert.True(t, fixed.Equal(rec.CreatedAt))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	last := all[len(all)-1]
	assert.Equal(t, rec.ID, last.ID)
	assert.Equal(t, "E1", last.EmployeeID)
	assert.Equal(t, "Ahmed", last.EmployeeName)
	assert.Equal(t, "tier A", last.JobTitle)
	assert.Equal(t, "17489.90", last.TotalSalary.StringFixed(2))
	assert.True(t, last.ComponentSum().Round(2).Equal(last.TotalSalary.Round(2)))
	assert.True(t, fixed.Equal(last.CreatedAt))
	assert.Less(t, all[0].ID, all[1].ID)
}

func TestAppend_KeepsFullPrecision(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	in := breakdown("E1", "Ahmed", "Graphics", "tier A", 1000)
	in.Basic30 = decimal.RequireFromString("12345678.123456789")
	in.TotalSalary = in.ComponentSum()

	rec, err := repo.Append(ctx, in)
	require.NoError(t, err)

	got, err := repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "12345678.123456789", got.Basic30.String())
	assert.True(t, in.TotalSalary.Equal(got.TotalSalary), "stored %s, read %s", in.TotalSalary, got.TotalSalary)
	assert.True(t, in.FixedAdditions.Equal(got.FixedAdditions))
}

func TestListAll_EmptyTable(t *testing.T) {
	repo := newTestRepo(t)

	all, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSearch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, b := range []domain.PayrollBreakdown{
		breakdown("E1", "Ahmed Ali", "Graphics", "tier A", 1000),
		breakdown("E2", "Mona", "Decor", "tier C", 900),
		breakdown("X3", "ahmed", "Graphics", "أ.د", 700),
	} {
		_, err := repo.Append(ctx, b)
		require.NoError(t, err)
	}

	t.Run("substring match", func(t *testing.T) {
		got, err := repo.Search(ctx, domain.FieldEmployeeID, "E")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "E1", got[0].EmployeeID)
		assert.Equal(t, "E2", got[1].EmployeeID)
	})

	t.Run("case sensitive", func(t *testing.T) {
		got, err := repo.Search(ctx, domain.FieldEmployeeName, "Ahmed")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Ahmed Ali", got[0].EmployeeName)
	})

	t.Run("like wildcards are literal", func(t *testing.T) {
		got, err := repo.Search(ctx, domain.FieldDepartment, "%")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("non ascii pattern", func(t *testing.T) {
		got, err := repo.Search(ctx, domain.FieldJobTitle, "أ.د")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "X3", got[0].EmployeeID)
	})

	t.Run("empty pattern lists all", func(t *testing.T) {
		all, err := repo.ListAll(ctx)
		require.NoError(t, err)
		for _, field := range domain.SearchFields {
			got, err := repo.Search(ctx, field, "")
			require.NoError(t, err)
			assert.Equal(t, all, got, field)
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := repo.Search(ctx, "total_salary", "1")
		require.Error(t, err)
		var ve *domain.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "field", ve.Field)
	})
}

func TestGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rec, err := repo.Append(ctx, breakdown("E1", "Ahmed", "Graphics", "tier A", 1000))
	require.NoError(t, err)

	got, err := repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "E1", got.EmployeeID)

	_, err = repo.Get(ctx, rec.ID+100)
	assert.True(t, IsNotFound(err))
}

func TestAppend_ConcurrentWritersKeepEveryRow(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	const writers = 12
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Append(ctx, breakdown("E", "Worker", "Graphics", "tier D", int64(100+i)))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, writers)

	seen := map[int64]bool{}
	for _, r := range all {
		assert.False(t, seen[r.ID], "duplicate id %d", r.ID)
		seen[r.ID] = true
		assert.True(t, r.ComponentSum().Round(2).Equal(r.TotalSalary.Round(2)))
	}
}

func TestAppend_StorageErrorRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPayrollRepository(db, DialectSQLite)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO payroll").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	_, err = repo.Append(context.Background(), breakdown("E1", "Ahmed", "Graphics", "tier A", 1000))
	require.Error(t, err)

	var se *domain.StorageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "append payroll record", se.Op)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAll_StorageError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPayrollRepository(db, DialectSQLite)
	mock.ExpectQuery("SELECT").WillReturnError(errors.New("no such table: payroll"))

	_, err = repo.ListAll(context.Background())
	assert.True(t, domain.IsStorage(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDialect_RebindsPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPayrollRepository(db, DialectPostgres)

	mock.ExpectQuery(`strpos\(department, \$1\) > 0`).
		WithArgs("Graph").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	got, err := repo.Search(context.Background(), domain.FieldDepartment, "Graph")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.Contains(t, repo.schema(), "BIGSERIAL")
	assert.Regexp(t, `total_salary\s+NUMERIC NOT NULL`, repo.schema())
	assert.Regexp(t, `total_salary\s+TEXT NOT NULL`, NewPayrollRepository(db, DialectSQLite).schema())
}
