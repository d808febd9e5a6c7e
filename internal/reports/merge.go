package reports

import "focolare/internal/core"

// Merge folds per-household summaries into one aggregate. Counts and totals
// accumulate per category id; the merged breakdown is re-sorted after
// accumulation, so the result does not depend on input order or grouping:
// Merge is associative and commutative, and Merge(nil) is the zero Summary.
//
// The average is recomputed from the merged totals, never averaged across
// the input averages.
func Merge(summaries []core.Summary) core.Summary {
	var merged core.Summary
	byCategory := make(map[string]*core.CategorySummary)

	for _, s := range summaries {
		merged.TotalReceipts += s.TotalReceipts
		merged.TotalAmount = merged.TotalAmount.Add(s.TotalAmount)
		for _, entry := range s.ByCategory {
			acc, ok := byCategory[entry.CategoryID]
			if !ok {
				acc = &core.CategorySummary{
					CategoryID:   entry.CategoryID,
					CategoryName: entry.CategoryName,
				}
				byCategory[entry.CategoryID] = acc
			}
			acc.Count += entry.Count
			acc.Total = acc.Total.Add(entry.Total)
			if acc.CategoryName == "" {
				acc.CategoryName = entry.CategoryName
			}
		}
	}

	merged.AverageAmount = merged.TotalAmount.DivRound(int64(merged.TotalReceipts))
	merged.ByCategory = make([]core.CategorySummary, 0, len(byCategory))
	for _, acc := range byCategory {
		merged.ByCategory = append(merged.ByCategory, *acc)
	}
	sortBreakdown(merged.ByCategory)
	return merged
}
