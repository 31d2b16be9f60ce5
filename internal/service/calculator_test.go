package service

import (
	"testing"

	"payroll-export/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInput(jobTitle string) domain.PayrollInput {
	return domain.PayrollInput{
		EmployeeID:   "E1",
		EmployeeName: "Ahmed",
		Department:   "Graphics",
		JobTitle:     jobTitle,
		BasicSalary:  decimal.NewFromInt(5000),
		Social:       decimal.NewFromInt(200),
		Basic30:      decimal.NewFromInt(1000),
		Enaa:         decimal.NewFromInt(10),
	}
}

func TestCompute_TierA(t *testing.T) {
	b, err := Compute(sampleInput("tier A"))
	require.NoError(t, err)

	want := map[string]string{
		"research":           "775.00",
		"research_pool":      "490.00",
		"entrepreneurship":   "910.00",
		"supervision":        "1300.00",
		"clerical":           "780.00",
		"development":        "780.00",
		"fixed_additions":    "1754.90",
		"substitution":       "3500.00",
		"quality_bonus":      "4270.00",
		"quality_bonus_diff": "330.00",
		"incentive":          "2600.00",
		"total_salary":       "17489.90",
	}
	got := map[string]string{
		"research":           b.Research.StringFixed(2),
		"research_pool":      b.ResearchPool.StringFixed(2),
		"entrepreneurship":   b.Entrepreneurship.StringFixed(2),
		"supervision":        b.Supervision.StringFixed(2),
		"clerical":           b.Clerical.StringFixed(2),
		"development":        b.Development.StringFixed(2),
		"fixed_additions":    b.FixedAdditions.StringFixed(2),
		"substitution":       b.Substitution.StringFixed(2),
		"quality_bonus":      b.QualityBonus.StringFixed(2),
		"quality_bonus_diff": b.QualityBonusDiff.StringFixed(2),
		"incentive":          b.Incentive.StringFixed(2),
		"total_salary":       b.TotalSalary.StringFixed(2),
	}
	assert.Equal(t, want, got)
}

func TestCompute_ArabicTitleMatchesTierName(t *testing.T) {
	byName, err := Compute(sampleInput("tier A"))
	require.NoError(t, err)
	byTitle, err := Compute(sampleInput("أ.د"))
	require.NoError(t, err)

	assert.True(t, byName.TotalSalary.Equal(byTitle.TotalSalary))
}

func TestCompute_UnknownTitleGetsNoAllowances(t *testing.T) {
	b, err := Compute(sampleInput("unknown"))
	require.NoError(t, err)

	assert.True(t, b.Substitution.IsZero())
	assert.True(t, b.QualityBonus.IsZero())
	assert.True(t, b.QualityBonusDiff.IsZero())
	assert.True(t, b.Incentive.IsZero())
	assert.Equal(t, "6789.90", b.TotalSalary.StringFixed(2))
}

func TestCompute_TotalIsSumOfComponents(t *testing.T) {
	for _, title := range append(domain.JobTitles(), "tier C", "nobody") {
		for _, basic30 := range []string{"0", "1", "333.33", "1234.567"} {
			in := sampleInput(title)
			in.Basic30 = decimal.RequireFromString(basic30)

			b, err := Compute(in)
			require.NoError(t, err)
			assert.True(t, b.TotalSalary.Equal(b.ComponentSum()), "title=%s basic30=%s", title, basic30)
		}
	}
}

func TestCompute_EnaaDoesNotAffectTotal(t *testing.T) {
	low := sampleInput("tier B")
	high := sampleInput("tier B")
	high.Enaa = decimal.NewFromInt(99999)

	a, err := Compute(low)
	require.NoError(t, err)
	b, err := Compute(high)
	require.NoError(t, err)

	assert.True(t, a.TotalSalary.Equal(b.TotalSalary))
	assert.True(t, b.Enaa.Equal(decimal.NewFromInt(99999)))
}

func TestCompute_Validation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*domain.PayrollInput)
		field string
	}{
		{"missing id", func(in *domain.PayrollInput) { in.EmployeeID = "" }, "employee_id"},
		{"blank name", func(in *domain.PayrollInput) { in.EmployeeName = "   " }, "employee_name"},
		{"missing department", func(in *domain.PayrollInput) { in.Department = "" }, "department"},
		{"missing title", func(in *domain.PayrollInput) { in.JobTitle = "" }, "job_title"},
		{"negative basic30", func(in *domain.PayrollInput) { in.Basic30 = decimal.NewFromInt(-1) }, "basic30"},
		{"negative social", func(in *domain.PayrollInput) { in.Social = decimal.NewFromInt(-5) }, "social"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sampleInput("tier A")
			tt.edit(&in)

			_, err := Compute(in)
			require.Error(t, err)

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestParseInput(t *testing.T) {
	raw := RawPayrollInput{
		EmployeeID:   " E1 ",
		EmployeeName: "Ahmed",
		Department:   "Graphics",
		JobTitle:     "tier A",
		BasicSalary:  "5000",
		Social:       "200",
		Basic30:      " 1000.50 ",
		Enaa:         "10",
	}

	in, err := ParseInput(raw)
	require.NoError(t, err)
	assert.Equal(t, "E1", in.EmployeeID)
	assert.Equal(t, "1000.5", in.Basic30.String())

	t.Run("not a number", func(t *testing.T) {
		bad := raw
		bad.Social = "abc"
		_, err := ParseInput(bad)

		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "social", verr.Field)
	})

	t.Run("negative", func(t *testing.T) {
		bad := raw
		bad.Enaa = "-1"
		_, err := ParseInput(bad)

		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "enaa", verr.Field)
	})

	t.Run("missing", func(t *testing.T) {
		bad := raw
		bad.Department = "  "
		_, err := ParseInput(bad)

		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "department", verr.Field)
	})
}
