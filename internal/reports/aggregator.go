// Package reports computes spending summaries from receipt records and
// merges them across households. Everything here is a pure, read-only
// computation over already-fetched records.
package reports

import (
	"sort"
	"strings"

	"focolare/internal/core"
)

// ComputeSummary aggregates the receipts that match the filter: totals,
// half-up rounded average, and a per-category breakdown ordered by total
// descending with category-name ascending as the tie-break. An empty match
// set yields a zeroed summary, never an error.
func ComputeSummary(receipts []core.Receipt, categories []core.Category, filter core.ReceiptFilter) core.Summary {
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	var summary core.Summary
	byCategory := make(map[string]*core.CategorySummary)
	for _, r := range receipts {
		if !matches(r, filter) {
			continue
		}
		summary.TotalReceipts++
		summary.TotalAmount = summary.TotalAmount.Add(r.Amount)

		entry, ok := byCategory[r.CategoryID]
		if !ok {
			entry = &core.CategorySummary{
				CategoryID:   r.CategoryID,
				CategoryName: names[r.CategoryID],
			}
			byCategory[r.CategoryID] = entry
		}
		entry.Count++
		entry.Total = entry.Total.Add(r.Amount)
	}

	summary.AverageAmount = summary.TotalAmount.DivRound(int64(summary.TotalReceipts))
	summary.ByCategory = make([]core.CategorySummary, 0, len(byCategory))
	for _, entry := range byCategory {
		summary.ByCategory = append(summary.ByCategory, *entry)
	}
	sortBreakdown(summary.ByCategory)
	return summary
}

// matches applies the AND-combined filter fields to one receipt.
func matches(r core.Receipt, f core.ReceiptFilter) bool {
	if !f.From.IsZero() && r.Date.DaysUntil(f.From) > 0 {
		return false
	}
	if !f.To.IsZero() && f.To.DaysUntil(r.Date) > 0 {
		return false
	}
	if len(f.CategoryIDs) > 0 {
		found := false
		for _, id := range f.CategoryIDs {
			if r.CategoryID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.MinAmount != nil && r.Amount.Cents < f.MinAmount.Cents {
		return false
	}
	if f.MaxAmount != nil && r.Amount.Cents > f.MaxAmount.Cents {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(r.Title), needle) &&
			!strings.Contains(strings.ToLower(r.Notes), needle) {
			return false
		}
	}
	return true
}

// sortBreakdown orders entries by total descending; equal totals break by
// category name ascending, then id, so output is fully deterministic.
func sortBreakdown(entries []core.CategorySummary) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Total.Cents != entries[j].Total.Cents {
			return entries[i].Total.Cents > entries[j].Total.Cents
		}
		if entries[i].CategoryName != entries[j].CategoryName {
			return entries[i].CategoryName < entries[j].CategoryName
		}
		return entries[i].CategoryID < entries[j].CategoryID
	})
}
