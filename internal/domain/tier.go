package domain

import "github.com/shopspring/decimal"

// TierAllowances are the fixed amounts granted by a job-title tier.
type TierAllowances struct {
	Substitution     decimal.Decimal
	QualityBonus     decimal.Decimal
	QualityBonusDiff decimal.Decimal
	Incentive        decimal.Decimal
}

type tier struct {
	Name       string
	Title      string
	Allowances TierAllowances
}

func allowances(substitution, quality, qualityDiff, incentive int64) TierAllowances {
	return TierAllowances{
		Substitution:     decimal.NewFromInt(substitution),
		QualityBonus:     decimal.NewFromInt(quality),
		QualityBonusDiff: decimal.NewFromInt(qualityDiff),
		Incentive:        decimal.NewFromInt(incentive),
	}
}

// tiers is ordered from the highest tier to the lowest.
var tiers = []tier{
	{Name: "tier A", Title: "أ.د", Allowances: allowances(3500, 4270, 330, 2600)},
	{Name: "tier B", Title: "أ.م.د", Allowances: allowances(3000, 3770, 230, 2475)},
	{Name: "tier C", Title: "د", Allowances: allowances(2500, 3120, 140, 2050)},
	{Name: "tier D", Title: "م.م", Allowances: allowances(1500, 2900, 100, 1850)},
	{Name: "tier E", Title: "م", Allowances: allowances(1000, 1850, 40, 1850)},
}

var tierIndex = func() map[string]TierAllowances {
	m := make(map[string]TierAllowances, len(tiers)*2)
	for _, t := range tiers {
		m[t.Title] = t.Allowances
		m[t.Name] = t.Allowances
	}
	return m
}()

// LookupTier returns the allowances for a job title. Titles outside the
// table get zero allowances and ok=false; that is not an error.
func LookupTier(jobTitle string) (TierAllowances, bool) {
	a, ok := tierIndex[jobTitle]
	if !ok {
		return TierAllowances{
			Substitution:     decimal.Zero,
			QualityBonus:     decimal.Zero,
			QualityBonusDiff: decimal.Zero,
			Incentive:        decimal.Zero,
		}, false
	}
	return a, true
}

// JobTitles returns the recognised job titles, highest tier first.
func JobTitles() []string {
	out := make([]string, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, t.Title)
	}
	return out
}

// Departments are offered as suggestions only; any non-empty department is accepted.
func Departments() []string {
	return []string{"جرافيك", "تصوير", "ديكور", "عمارة"}
}
