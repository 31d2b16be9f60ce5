package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Searchable columns of the payroll table.
const (
	FieldEmployeeID   = "employee_id"
	FieldEmployeeName = "employee_name"
	FieldDepartment   = "department"
	FieldJobTitle     = "job_title"
)

// SearchFields lists the fields a record search may filter on, in display order.
var SearchFields = []string{
	FieldEmployeeID,
	FieldEmployeeName,
	FieldDepartment,
	FieldJobTitle,
}

func IsSearchField(field string) bool {
	for _, f := range SearchFields {
		if f == field {
			return true
		}
	}
	return false
}

type PayrollInput struct {
	EmployeeID   string
	EmployeeName string
	Department   string
	JobTitle     string

	BasicSalary decimal.Decimal
	Social      decimal.Decimal
	Basic30     decimal.Decimal
	Enaa        decimal.Decimal
}

// PayrollBreakdown is one computed pay decomposition. Amounts keep full
// precision; round with StringFixed(2) only when presenting them.
type PayrollBreakdown struct {
	PayrollInput

	Research         decimal.Decimal
	ResearchPool     decimal.Decimal
	Entrepreneurship decimal.Decimal
	Supervision      decimal.Decimal
	Clerical         decimal.Decimal
	Development      decimal.Decimal
	FixedAdditions   decimal.Decimal

	Substitution     decimal.Decimal
	QualityBonus     decimal.Decimal
	QualityBonusDiff decimal.Decimal
	Incentive        decimal.Decimal

	TotalSalary decimal.Decimal
}

// Components returns the eleven amounts that make up TotalSalary.
func (b PayrollBreakdown) Components() []decimal.Decimal {
	return []decimal.Decimal{
		b.Research,
		b.ResearchPool,
		b.Entrepreneurship,
		b.Supervision,
		b.Clerical,
		b.Development,
		b.FixedAdditions,
		b.Substitution,
		b.QualityBonus,
		b.QualityBonusDiff,
		b.Incentive,
	}
}

// ComponentSum recomputes the total from the stored components.
func (b PayrollBreakdown) ComponentSum() decimal.Decimal {
	return decimal.Sum(decimal.Zero, b.Components()...)
}

type PayrollRecord struct {
	ID int64
	PayrollBreakdown
	CreatedAt time.Time
}
