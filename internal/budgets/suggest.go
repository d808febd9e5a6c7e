package budgets

import (
	"sort"
	"time"

	"focolare/internal/core"
)

// DefaultTrailingMonths is the history window for budget suggestions.
const DefaultTrailingMonths = 3

// suggestionBuffer is the flat markup applied over the historical average.
const suggestionBuffer = 1.10

// TrailingWindow returns the inclusive date range covering the trailing
// full calendar months that end with the month before asOf. With asOf in
// April and three trailing months the window is January 1 to March 31.
func TrailingWindow(asOf core.Date, months int) (from, to core.Date) {
	firstOfCurrent := time.Date(asOf.Year(), asOf.Time.Month(), 1, 0, 0, 0, 0, time.UTC)
	to = core.DateOf(firstOfCurrent.AddDate(0, 0, -1))
	from = core.DateOf(firstOfCurrent.AddDate(0, -months, 0))
	return from, to
}

// Suggest derives a suggested monthly budget per category from trailing
// spending totals. The average divides by the full window length, not by
// months-with-data, and categories with no history still yield a zero
// suggestion so "no history" is visible to the caller. Output is ordered by
// suggested amount descending, category name ascending on ties.
func Suggest(categories []core.Category, trailingTotals map[string]core.Money, months int) []core.Suggestion {
	if months < 1 {
		months = DefaultTrailingMonths
	}

	suggestions := make([]core.Suggestion, 0, len(categories))
	for _, c := range categories {
		avg := trailingTotals[c.ID].DivRound(int64(months))
		suggestions = append(suggestions, core.Suggestion{
			CategoryID:       c.ID,
			CategoryName:     c.Name,
			AverageMonthly:   avg,
			SuggestedMonthly: avg.MulRound(suggestionBuffer),
		})
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].SuggestedMonthly.Cents != suggestions[j].SuggestedMonthly.Cents {
			return suggestions[i].SuggestedMonthly.Cents > suggestions[j].SuggestedMonthly.Cents
		}
		if suggestions[i].CategoryName != suggestions[j].CategoryName {
			return suggestions[i].CategoryName < suggestions[j].CategoryName
		}
		return suggestions[i].CategoryID < suggestions[j].CategoryID
	})
	return suggestions
}
