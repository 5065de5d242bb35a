package metrics

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/kwarta/kwarta/pkg/allocation"
	"github.com/kwarta/kwarta/pkg/budget"
)

// Band is a display status derived from a spend percentage.
type Band string

const (
	BandSafe    Band = "safe"
	BandWarning Band = "warning"
	BandExact   Band = "exact"
	BandOver    Band = "over"
	// BandNone marks the table-level gap that gets no styling.
	BandNone Band = ""
)

// Spent sums an item's expense amounts.
func Spent(item budget.Item) float64 {
	var total float64
	for _, e := range item.Expenses {
		total += e.Amount
	}
	return total
}

// Variance is planned minus spent; negative means overspent.
func Variance(item budget.Item) float64 {
	return item.Budget - Spent(item)
}

// Percentage is spent over planned, as a percent. Zero-budget items report 0.
func Percentage(item budget.Item) float64 {
	if item.Budget <= 0 {
		return 0
	}
	return Spent(item) / item.Budget * 100
}

// ItemBand classifies one item's percentage. Exact means exactly 100; the
// fractional ranges (79,80) and (99,100) classify as over.
func ItemBand(pct float64) Band {
	switch {
	case pct <= 79:
		return BandSafe
	case pct >= 80 && pct <= 99:
		return BandWarning
	case pct == 100:
		return BandExact
	default:
		return BandOver
	}
}

// TableBand classifies a table-total percentage. Aggregated floats rarely land
// on exactly 100, so exact uses an epsilon here. Totals falling in the
// fractional gaps below 100 get no band at all.
func TableBand(pct float64) Band {
	switch {
	case pct <= 79:
		return BandSafe
	case pct >= 80 && pct <= 99:
		return BandWarning
	case math.Abs(pct-100) < 0.01:
		return BandExact
	case pct > 100:
		return BandOver
	default:
		return BandNone
	}
}

// TableTotals is the summary row under one table.
type TableTotals struct {
	Budget     float64
	Spent      float64
	Percentage float64
	Band       Band
	Available  float64
	Remaining  float64
}

// ComputeTableTotals aggregates one table's visible items against its
// available money.
func ComputeTableTotals(items []budget.Item, available float64) TableTotals {
	var totals TableTotals
	for _, item := range items {
		totals.Budget += item.Budget
		totals.Spent += Spent(item)
	}
	if totals.Budget > 0 {
		totals.Percentage = totals.Spent / totals.Budget * 100
	}
	totals.Band = TableBand(totals.Percentage)
	totals.Available = available
	totals.Remaining = available - totals.Spent
	return totals
}

// GroupSpending sums expense amounts per allocation group.
func GroupSpending(items []budget.Item) map[budget.Group]float64 {
	byGroup := map[budget.Group]float64{}
	for _, g := range budget.AllGroups {
		byGroup[g] = 0
	}
	for _, item := range items {
		kind := item.Kind
		if !kind.IsValid() {
			kind = budget.InferKind(item.Category)
		}
		byGroup[budget.GroupOf(kind)] += Spent(item)
	}
	return byGroup
}

// AllocationRow compares one group's actual spend share against its target.
type AllocationRow struct {
	Group     budget.Group
	ActualPct float64
	TargetPct float64
	Spent     float64
}

// Alert is one budget-health diagnostic with a fixed remediation suggestion.
type Alert struct {
	Level      string
	Text       string
	Suggestion string
}

const (
	alertWarn = "warn"
	alertGood = "good"
)

// Dashboard is the full derived figure set for the active view.
type Dashboard struct {
	SavingsRate     float64
	EssentialsRatio float64
	DebtRatio       float64
	LifestyleRatio  float64
	BudgetAccuracy  float64
	Rollover        float64
	Allocation      []AllocationRow
	Alerts          []Alert
}

// BuildDashboard derives every KPI, allocation row, and alert from the visible
// items, the total available money, and the previous month's rollover. Pure;
// no persistence side effects.
func BuildDashboard(items []budget.Item, totalAvailable, rollover float64, cfg allocation.Config) Dashboard {
	byGroup := GroupSpending(items)

	var totalSpent, plannedTotal float64
	for _, item := range items {
		totalSpent += Spent(item)
		plannedTotal += item.Budget
	}

	ratio := func(spent float64) float64 {
		if totalAvailable <= 0 {
			return 0
		}
		return spent / totalAvailable * 100
	}

	d := Dashboard{
		SavingsRate:     ratio(byGroup[budget.GroupSavings] + byGroup[budget.GroupInvesting]),
		EssentialsRatio: ratio(byGroup[budget.GroupEssentials]),
		DebtRatio:       ratio(byGroup[budget.GroupDebt]),
		LifestyleRatio:  ratio(byGroup[budget.GroupLifestyle]),
		Rollover:        rollover,
	}
	if plannedTotal > 0 {
		d.BudgetAccuracy = math.Max(0, 100-math.Abs(plannedTotal-totalSpent)/plannedTotal*100)
	}

	d.Allocation = make([]AllocationRow, 0, len(budget.AllGroups))
	for _, g := range budget.AllGroups {
		d.Allocation = append(d.Allocation, AllocationRow{
			Group:     g,
			ActualPct: ratio(byGroup[g]),
			TargetPct: cfg.Targets[g],
			Spent:     byGroup[g],
		})
	}

	d.Alerts = buildAlerts(d, cfg)
	return d
}

// buildAlerts emits every applicable warning in fixed order, or the single
// healthy alert when none fire.
func buildAlerts(d Dashboard, cfg allocation.Config) []Alert {
	var alerts []Alert

	if d.SavingsRate < 20 {
		alerts = append(alerts, Alert{
			Level:      alertWarn,
			Text:       "Savings + investing is below 20% of available money.",
			Suggestion: "Approach: Move 3-5% from lifestyle spending into savings first.",
		})
	}
	if capPct, ok := cfg.Cap(budget.GroupEssentials); ok && d.EssentialsRatio > capPct {
		alerts = append(alerts, Alert{
			Level:      alertWarn,
			Text:       fmt.Sprintf("Essentials exceeded cap (%s%%).", formatPct(capPct)),
			Suggestion: "Approach: Review fixed bills and cut/renegotiate one major cost.",
		})
	}
	if capPct, ok := cfg.Cap(budget.GroupDebt); ok && d.DebtRatio > capPct {
		alerts = append(alerts, Alert{
			Level:      alertWarn,
			Text:       fmt.Sprintf("Debt exceeded cap (%s%%).", formatPct(capPct)),
			Suggestion: "Approach: Pause new installments and prioritize extra debt payoff.",
		})
	}
	if capPct, ok := cfg.Cap(budget.GroupLifestyle); ok && d.LifestyleRatio > capPct {
		alerts = append(alerts, Alert{
			Level:      alertWarn,
			Text:       fmt.Sprintf("Lifestyle exceeded cap (%s%%).", formatPct(capPct)),
			Suggestion: "Approach: Set a weekly leisure cap and shift excess to sinking fund.",
		})
	}

	if len(alerts) == 0 {
		alerts = append(alerts, Alert{
			Level:      alertGood,
			Text:       "Allocation health checks are within target ranges.",
			Suggestion: "Approach: Keep current plan and review again next cutoff.",
		})
	}
	return alerts
}

func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// PreviousMonth returns the YYYY-MM before the given month key, or "" when the
// input is not a month key.
func PreviousMonth(month string) string {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return ""
	}
	return t.AddDate(0, -1, 0).Format("2006-01")
}
