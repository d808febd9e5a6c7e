package reports

import (
	"testing"

	"focolare/internal/core"
)

var marchCategories = []core.Category{
	{ID: "cat-food", HouseholdID: "h1", Name: "Food"},
	{ID: "cat-util", HouseholdID: "h1", Name: "Utilities"},
	{ID: "cat-fun", HouseholdID: "h1", Name: "Fun"},
}

func marchReceipts() []core.Receipt {
	return []core.Receipt{
		{ID: "r1", HouseholdID: "h1", CategoryID: "cat-food", Title: "market", Amount: core.Money{Cents: 3000}, Date: core.NewDate(2024, 3, 2)},
		{ID: "r2", HouseholdID: "h1", CategoryID: "cat-food", Title: "bakery", Amount: core.Money{Cents: 2000}, Date: core.NewDate(2024, 3, 9)},
		{ID: "r3", HouseholdID: "h1", CategoryID: "cat-util", Title: "electricity", Amount: core.Money{Cents: 5000}, Date: core.NewDate(2024, 3, 20), Notes: "winter bill"},
	}
}

func TestComputeSummaryMarchScenario(t *testing.T) {
	got := ComputeSummary(marchReceipts(), marchCategories, core.ReceiptFilter{
		From: core.NewDate(2024, 3, 1),
		To:   core.NewDate(2024, 3, 31),
	})

	if got.TotalReceipts != 3 {
		t.Errorf("TotalReceipts = %d, want 3", got.TotalReceipts)
	}
	if got.TotalAmount.Cents != 10000 {
		t.Errorf("TotalAmount = %d, want 10000", got.TotalAmount.Cents)
	}
	if got.AverageAmount.Cents != 3333 {
		t.Errorf("AverageAmount = %d, want 3333", got.AverageAmount.Cents)
	}
	if len(got.ByCategory) != 2 {
		t.Fatalf("ByCategory entries = %d, want 2", len(got.ByCategory))
	}
	// Equal 5000 totals tie-break by name ascending: Food before Utilities.
	if got.ByCategory[0].CategoryName != "Food" || got.ByCategory[1].CategoryName != "Utilities" {
		t.Errorf("tie-break order = [%s, %s], want [Food, Utilities]",
			got.ByCategory[0].CategoryName, got.ByCategory[1].CategoryName)
	}
	if got.ByCategory[0].Count != 2 || got.ByCategory[0].Total.Cents != 5000 {
		t.Errorf("Food entry = {%d, %d}, want {2, 5000}", got.ByCategory[0].Count, got.ByCategory[0].Total.Cents)
	}

	// Property: breakdown totals sum to the grand total.
	var sum int64
	for _, e := range got.ByCategory {
		sum += e.Total.Cents
	}
	if sum != got.TotalAmount.Cents {
		t.Errorf("breakdown sum %d != total %d", sum, got.TotalAmount.Cents)
	}
}

func TestComputeSummaryEmptyMatch(t *testing.T) {
	got := ComputeSummary(marchReceipts(), marchCategories, core.ReceiptFilter{
		From: core.NewDate(2025, 1, 1),
	})
	if got.TotalReceipts != 0 || got.TotalAmount.Cents != 0 || got.AverageAmount.Cents != 0 {
		t.Errorf("empty match must be zeroed, got %+v", got)
	}
	if len(got.ByCategory) != 0 {
		t.Errorf("empty match must have empty breakdown, got %d entries", len(got.ByCategory))
	}
}

func TestComputeSummaryFilters(t *testing.T) {
	min := core.Money{Cents: 2500}
	max := core.Money{Cents: 4500}
	tests := []struct {
		name      string
		filter    core.ReceiptFilter
		wantCount int
		wantCents int64
	}{
		{"no filter matches all", core.ReceiptFilter{}, 3, 10000},
		{"date range inclusive ends", core.ReceiptFilter{From: core.NewDate(2024, 3, 2), To: core.NewDate(2024, 3, 9)}, 2, 5000},
		{"category set", core.ReceiptFilter{CategoryIDs: []string{"cat-food"}}, 2, 5000},
		{"amount range inclusive", core.ReceiptFilter{MinAmount: &min, MaxAmount: &max}, 1, 3000},
		{"search title case-insensitive", core.ReceiptFilter{Search: "BAKery"}, 1, 2000},
		{"search notes", core.ReceiptFilter{Search: "winter"}, 1, 5000},
		{"all fields AND-combined", core.ReceiptFilter{From: core.NewDate(2024, 3, 1), CategoryIDs: []string{"cat-food"}, Search: "market"}, 1, 3000},
		{"search misses", core.ReceiptFilter{Search: "helicopter"}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeSummary(marchReceipts(), marchCategories, tt.filter)
			if got.TotalReceipts != tt.wantCount {
				t.Errorf("TotalReceipts = %d, want %d", got.TotalReceipts, tt.wantCount)
			}
			if got.TotalAmount.Cents != tt.wantCents {
				t.Errorf("TotalAmount = %d, want %d", got.TotalAmount.Cents, tt.wantCents)
			}
		})
	}
}

func TestComputeSummaryUnknownCategoryName(t *testing.T) {
	receipts := []core.Receipt{
		{ID: "r1", HouseholdID: "h1", CategoryID: "ghost", Title: "x", Amount: core.Money{Cents: 100}, Date: core.NewDate(2024, 1, 1)},
	}
	got := ComputeSummary(receipts, nil, core.ReceiptFilter{})
	if len(got.ByCategory) != 1 || got.ByCategory[0].CategoryID != "ghost" {
		t.Fatalf("unknown category must still aggregate, got %+v", got.ByCategory)
	}
}
