// Package budgets tracks budget progress against actual spending and
// derives budget suggestions from spending history.
package budgets

import "focolare/internal/core"

// Evaluate enriches a budget with spending metrics as of a date.
//
// Every ratio guards its denominator: a zero-amount budget reports 0% used
// and elapsed days never drop below one, so no division can produce
// NaN or Infinity. Status precedence: Over Budget, then Off Track, then
// On Track.
func Evaluate(b core.Budget, currentSpending core.Money, asOf core.Date) core.BudgetOverviewItem {
	item := core.BudgetOverviewItem{
		Budget:          b,
		CurrentSpending: currentSpending,
		Remaining:       b.Amount.Sub(currentSpending),
		IsOverBudget:    currentSpending.Cents > b.Amount.Cents,
	}

	if b.Amount.Cents > 0 {
		item.PercentageUsed = float64(currentSpending.Cents) / float64(b.Amount.Cents) * 100
	}

	periodLength := b.StartDate.DaysUntil(b.EndDate) + 1
	elapsed := b.StartDate.DaysUntil(asOf) + 1
	if elapsed < 1 {
		elapsed = 1
	}
	if elapsed > periodLength {
		elapsed = periodLength
	}

	avgDaily := float64(currentSpending.Cents) / float64(elapsed)
	projected := avgDaily * float64(periodLength)
	item.AverageDailySpending = core.Money{Cents: int64(avgDaily + 0.5)}
	item.ProjectedSpending = core.Money{Cents: int64(projected + 0.5)}
	// On-track compares the unrounded projection against the ceiling.
	item.OnTrack = projected <= float64(b.Amount.Cents)

	if remaining := asOf.DaysUntil(b.EndDate); remaining > 0 {
		item.DaysRemaining = remaining
	}

	switch {
	case item.IsOverBudget:
		item.Status = core.StatusOverBudget
	case !item.OnTrack:
		item.Status = core.StatusOffTrack
	default:
		item.Status = core.StatusOnTrack
	}
	return item
}

// SpendingWindow is the date range whose receipts count against the budget:
// the budget period clipped to the as-of date. The returned filter is
// category-scoped when the budget is.
func SpendingWindow(b core.Budget, asOf core.Date) core.ReceiptFilter {
	f := core.ReceiptFilter{From: b.StartDate, To: b.EndDate}
	if asOf.DaysUntil(b.EndDate) > 0 {
		f.To = asOf
	}
	if b.CategoryScoped() {
		f.CategoryIDs = []string{b.CategoryID}
	}
	return f
}
