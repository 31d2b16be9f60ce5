package export

import (
	"fmt"
	"strings"
	"time"

	"payroll-export/internal/domain"

	"github.com/shopspring/decimal"
)

// Language selects the label set used for headers and item names.
type Language string

const (
	Arabic  Language = "ar"
	English Language = "en"
)

// ParseLanguage maps "", "ar" and "en" to a Language.
func ParseLanguage(s string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(s))) {
	case "", Arabic:
		return Arabic, nil
	case English:
		return English, nil
	}
	return "", domain.NewValidationError("export", "labels", fmt.Sprintf("unknown label set %q", s))
}

type group int

const (
	groupEmployee group = iota
	groupFinancial1
	groupFinancial2
	groupAdditional
)

var groupTitles = [...]string{
	groupEmployee:   "Employee Information",
	groupFinancial1: "Financial Data (Part 1)",
	groupFinancial2: "Financial Data (Part 2)",
	groupAdditional: "Additional Data",
}

// Column describes one exported field. Value returns a string, a
// decimal.Decimal or a time.Time.
type Column struct {
	Key     string
	Arabic  string
	English string
	group   group
	Value   func(r domain.PayrollRecord) any
}

func (c Column) Header(lang Language) string {
	if lang == English {
		return c.English
	}
	return c.Arabic
}

var columns = []Column{
	{Key: "employee_id", Arabic: "رقم الموظف", English: "Employee ID", group: groupEmployee,
		Value: func(r domain.PayrollRecord) any { return r.EmployeeID }},
	{Key: "employee_name", Arabic: "الاسم", English: "Name", group: groupEmployee,
		Value: func(r domain.PayrollRecord) any { return r.EmployeeName }},
	{Key: "department", Arabic: "القسم", English: "Department", group: groupEmployee,
		Value: func(r domain.PayrollRecord) any { return r.Department }},
	{Key: "job_title", Arabic: "الدرجة الوظيفية", English: "Job Title", group: groupEmployee,
		Value: func(r domain.PayrollRecord) any { return r.JobTitle }},
	{Key: "basic_salary", Arabic: "الاساسى", English: "Basic Salary", group: groupEmployee,
		Value: func(r domain.PayrollRecord) any { return r.BasicSalary }},

	{Key: "social", Arabic: "اجتماعية", English: "Social", group: groupFinancial1,
		Value: func(r domain.PayrollRecord) any { return r.Social }},
	{Key: "basic30", Arabic: "اساسى 30/6/15", English: "Basic 30/6/15", group: groupFinancial1,
		Value: func(r domain.PayrollRecord) any { return r.Basic30 }},
	{Key: "enaa_rate", Arabic: "اعانة", English: "Enaa Rate", group: groupFinancial1,
		Value: func(r domain.PayrollRecord) any { return r.Enaa }},
	{Key: "research", Arabic: "مخصص البحث", English: "Research Allowance", group: groupFinancial1,
		Value: func(r domain.PayrollRecord) any { return r.Research }},
	{Key: "research_pool", Arabic: "بحوث", English: "Research Pool", group: groupFinancial1,
		Value: func(r domain.PayrollRecord) any { return r.ResearchPool }},

	{Key: "entrepreneurship", Arabic: "ريادة", English: "Entrepreneurship", group: groupFinancial2,
		Value: func(r domain.PayrollRecord) any { return r.Entrepreneurship }},
	{Key: "supervision", Arabic: "اشراف", English: "Supervision", group: groupFinancial2,
		Value: func(r domain.PayrollRecord) any { return r.Supervision }},
	{Key: "clerical", Arabic: "مكتبية", English: "Clerical", group: groupFinancial2,
		Value: func(r domain.PayrollRecord) any { return r.Clerical }},
	{Key: "development", Arabic: "تطوير", English: "Development", group: groupFinancial2,
		Value: func(r domain.PayrollRecord) any { return r.Development }},
	{Key: "fixed_additions", Arabic: "اضافات ثابتة", English: "Fixed Additions", group: groupFinancial2,
		Value: func(r domain.PayrollRecord) any { return r.FixedAdditions }},

	{Key: "quality_bonus", Arabic: "جودة", English: "Quality Bonus", group: groupAdditional,
		Value: func(r domain.PayrollRecord) any { return r.QualityBonus }},
	{Key: "quality_bonus_diff", Arabic: "فرق الجودة", English: "Quality Bonus Diff", group: groupAdditional,
		Value: func(r domain.PayrollRecord) any { return r.QualityBonusDiff }},
	{Key: "incentive", Arabic: "حافز", English: "Incentive", group: groupAdditional,
		Value: func(r domain.PayrollRecord) any { return r.Incentive }},
	{Key: "substitution", Arabic: "بدل", English: "Substitution", group: groupAdditional,
		Value: func(r domain.PayrollRecord) any { return r.Substitution }},
	{Key: "total_salary", Arabic: "جملة الاجر", English: "Total Salary", group: groupAdditional,
		Value: func(r domain.PayrollRecord) any { return r.TotalSalary }},
	{Key: "created_at", Arabic: "التاريخ", English: "Date", group: groupAdditional,
		Value: func(r domain.PayrollRecord) any { return r.CreatedAt }},
}

var columnIndex = func() map[string]int {
	m := make(map[string]int, len(columns))
	for i, c := range columns {
		m[c.Key] = i
	}
	return m
}()

// ColumnKeys lists every exportable field in document order.
func ColumnKeys() []string {
	keys := make([]string, len(columns))
	for i, c := range columns {
		keys[i] = c.Key
	}
	return keys
}

// selectColumns resolves keys to columns, keeping document order and
// dropping duplicates. No keys selects every column.
func selectColumns(keys []string) ([]Column, error) {
	if len(keys) == 0 {
		out := make([]Column, len(columns))
		copy(out, columns)
		return out, nil
	}

	picked := make([]bool, len(columns))
	for _, k := range keys {
		i, ok := columnIndex[strings.TrimSpace(k)]
		if !ok {
			return nil, domain.NewValidationError("export", "fields", fmt.Sprintf("unknown field %q", k))
		}
		picked[i] = true
	}

	var out []Column
	for i, c := range columns {
		if picked[i] {
			out = append(out, c)
		}
	}
	return out, nil
}

// singleColumns is the item list of a single breakdown, which has no timestamp.
func singleColumns() []Column {
	out := make([]Column, 0, len(columns)-1)
	for _, c := range columns {
		if c.Key == "created_at" {
			continue
		}
		out = append(out, c)
	}
	return out
}

func formatText(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case decimal.Decimal:
		return x.StringFixed(2)
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format(timestampLayout)
	default:
		return fmt.Sprint(x)
	}
}
