package service

import (
	"errors"
	"reflect"
	"strings"

	"payroll-export/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const opCompute = "compute payroll"

// Percentages applied to basic30.
var (
	researchRate         = decimal.RequireFromString("0.775")
	researchPoolRate     = decimal.RequireFromString("0.49")
	entrepreneurshipRate = decimal.RequireFromString("0.91")
	supervisionRate      = decimal.RequireFromString("1.30")
	clericalRate         = decimal.RequireFromString("0.78")
	developmentRate      = decimal.RequireFromString("0.78")
)

// Fixed monthly additions.
var (
	ExperienceAddition = decimal.NewFromInt(600)
	DeductionOffset    = decimal.NewFromInt(10)
	RaiseAddition      = decimal.RequireFromString("73.90")
	ClothingAllowance  = decimal.NewFromInt(1071)
	FixedAdditions     = decimal.Sum(ExperienceAddition, DeductionOffset, RaiseAddition, ClothingAllowance)
)

// RawPayrollInput carries the fields exactly as a form or request delivers them.
type RawPayrollInput struct {
	EmployeeID   string `json:"employee_id" validate:"required"`
	EmployeeName string `json:"employee_name" validate:"required"`
	Department   string `json:"department" validate:"required"`
	JobTitle     string `json:"job_title" validate:"required"`
	BasicSalary  string `json:"basic_salary" validate:"required,number_gte0"`
	Social       string `json:"social" validate:"required,number_gte0"`
	Basic30      string `json:"basic30" validate:"required,number_gte0"`
	Enaa         string `json:"enaa" validate:"required,number_gte0"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("number_gte0", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
		return err == nil && !d.IsNegative()
	})
	return v
}

// ParseInput validates raw form values and converts the amounts to decimals.
func ParseInput(raw RawPayrollInput) (domain.PayrollInput, error) {
	raw.EmployeeID = strings.TrimSpace(raw.EmployeeID)
	raw.EmployeeName = strings.TrimSpace(raw.EmployeeName)
	raw.Department = strings.TrimSpace(raw.Department)
	raw.JobTitle = strings.TrimSpace(raw.JobTitle)

	if err := validate.Struct(raw); err != nil {
		return domain.PayrollInput{}, mapValidationError(err)
	}

	return domain.PayrollInput{
		EmployeeID:   raw.EmployeeID,
		EmployeeName: raw.EmployeeName,
		Department:   raw.Department,
		JobTitle:     raw.JobTitle,
		BasicSalary:  decimal.RequireFromString(strings.TrimSpace(raw.BasicSalary)),
		Social:       decimal.RequireFromString(strings.TrimSpace(raw.Social)),
		Basic30:      decimal.RequireFromString(strings.TrimSpace(raw.Basic30)),
		Enaa:         decimal.RequireFromString(strings.TrimSpace(raw.Enaa)),
	}, nil
}

func mapValidationError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return domain.NewValidationError(opCompute, "", "invalid input")
	}

	e := errs[0]
	switch e.Tag() {
	case "required":
		return domain.NewValidationError(opCompute, e.Field(), "is required")
	case "number_gte0":
		return domain.NewValidationError(opCompute, e.Field(), "must be a non-negative number")
	default:
		return domain.NewValidationError(opCompute, e.Field(), "is invalid")
	}
}

func validateIdentity(op string, in domain.PayrollInput) error {
	required := []struct {
		field, value string
	}{
		{domain.FieldEmployeeID, in.EmployeeID},
		{domain.FieldEmployeeName, in.EmployeeName},
		{domain.FieldDepartment, in.Department},
		{domain.FieldJobTitle, in.JobTitle},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return domain.NewValidationError(op, r.field, "is required")
		}
	}
	return nil
}

func validateInput(in domain.PayrollInput) error {
	if err := validateIdentity(opCompute, in); err != nil {
		return err
	}

	amounts := []struct {
		field string
		value decimal.Decimal
	}{
		{"basic_salary", in.BasicSalary},
		{"social", in.Social},
		{"basic30", in.Basic30},
		{"enaa", in.Enaa},
	}
	for _, a := range amounts {
		if a.value.IsNegative() {
			return domain.NewValidationError(opCompute, a.field, "must be a non-negative number")
		}
	}
	return nil
}

// Compute derives the full breakdown from the input. It has no side effects.
// Enaa is carried through for display and never contributes to the total.
func Compute(in domain.PayrollInput) (domain.PayrollBreakdown, error) {
	if err := validateInput(in); err != nil {
		return domain.PayrollBreakdown{}, err
	}

	b := domain.PayrollBreakdown{
		PayrollInput:     in,
		Research:         in.Basic30.Mul(researchRate),
		ResearchPool:     in.Basic30.Mul(researchPoolRate),
		Entrepreneurship: in.Basic30.Mul(entrepreneurshipRate),
		Supervision:      in.Basic30.Mul(supervisionRate),
		Clerical:         in.Basic30.Mul(clericalRate),
		Development:      in.Basic30.Mul(developmentRate),
		FixedAdditions:   FixedAdditions,
	}

	tier, _ := domain.LookupTier(in.JobTitle)
	b.Substitution = tier.Substitution
	b.QualityBonus = tier.QualityBonus
	b.QualityBonusDiff = tier.QualityBonusDiff
	b.Incentive = tier.Incentive

	b.TotalSalary = b.ComponentSum()
	return b, nil
}
