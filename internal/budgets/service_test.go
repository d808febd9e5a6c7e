package budgets

import (
	"context"
	"errors"
	"testing"

	"focolare/internal/access"
	"focolare/internal/core"
)

type fakeBackend struct {
	memberships []core.Membership
	budgets     map[string][]core.Budget
	categories  map[string][]core.Category
	receipts    map[string][]core.Receipt
	queryErr    error
}

func (f *fakeBackend) ActiveMemberships(_ context.Context, userID string) ([]core.Membership, error) {
	var out []core.Membership
	for _, m := range f.memberships {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeBackend) BudgetsByHousehold(_ context.Context, householdID string) ([]core.Budget, error) {
	return f.budgets[householdID], nil
}

func (f *fakeBackend) CategoriesByHousehold(_ context.Context, householdID string) ([]core.Category, error) {
	return f.categories[householdID], nil
}

// HouseholdSummary mimics the report service by filtering in memory.
func (f *fakeBackend) HouseholdSummary(_ context.Context, _, householdID string, filter core.ReceiptFilter) (core.Summary, error) {
	if f.queryErr != nil {
		return core.Summary{}, f.queryErr
	}
	var sum core.Summary
	byCat := map[string]*core.CategorySummary{}
	for _, r := range f.receipts[householdID] {
		if !filter.From.IsZero() && r.Date.DaysUntil(filter.From) > 0 {
			continue
		}
		if !filter.To.IsZero() && filter.To.DaysUntil(r.Date) > 0 {
			continue
		}
		if len(filter.CategoryIDs) > 0 {
			ok := false
			for _, id := range filter.CategoryIDs {
				if id == r.CategoryID {
					ok = true
				}
			}
			if !ok {
				continue
			}
		}
		sum.TotalReceipts++
		sum.TotalAmount = sum.TotalAmount.Add(r.Amount)
		e := byCat[r.CategoryID]
		if e == nil {
			e = &core.CategorySummary{CategoryID: r.CategoryID}
			byCat[r.CategoryID] = e
		}
		e.Count++
		e.Total = e.Total.Add(r.Amount)
	}
	for _, e := range byCat {
		sum.ByCategory = append(sum.ByCategory, *e)
	}
	return sum, nil
}

func newBackend() *fakeBackend {
	return &fakeBackend{
		memberships: []core.Membership{
			{HouseholdID: "h1", UserID: "u1", Role: core.RoleMember, IsActive: true},
		},
		budgets: map[string][]core.Budget{
			"h1": {
				{
					ID: "b-all", HouseholdID: "h1",
					Amount: core.Money{Cents: 50000}, Period: core.PeriodMonthly,
					StartDate: core.NewDate(2024, 3, 1), EndDate: core.NewDate(2024, 3, 31),
				},
				{
					ID: "b-food", HouseholdID: "h1", CategoryID: "food",
					Amount: core.Money{Cents: 10000}, Period: core.PeriodMonthly,
					StartDate: core.NewDate(2024, 3, 1), EndDate: core.NewDate(2024, 3, 31),
				},
			},
		},
		categories: map[string][]core.Category{
			"h1": {
				{ID: "food", HouseholdID: "h1", Name: "Food"},
				{ID: "rent", HouseholdID: "h1", Name: "Rent"},
			},
		},
		receipts: map[string][]core.Receipt{
			"h1": {
				{ID: "r1", HouseholdID: "h1", CategoryID: "food", Title: "market", Amount: core.Money{Cents: 12000}, Date: core.NewDate(2024, 3, 5)},
				{ID: "r2", HouseholdID: "h1", CategoryID: "rent", Title: "rent", Amount: core.Money{Cents: 30000}, Date: core.NewDate(2024, 3, 1)},
				{ID: "r3", HouseholdID: "h1", CategoryID: "food", Title: "old market", Amount: core.Money{Cents: 9000}, Date: core.NewDate(2024, 1, 20)},
			},
		},
	}
}

func TestOverviewScopesSpendingPerBudget(t *testing.T) {
	backend := newBackend()
	svc := NewService(access.NewGate(backend), backend, backend, backend)

	items, err := svc.Overview(context.Background(), "u1", "h1", core.NewDate(2024, 3, 16))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}

	// Whole-household budget sees March spending across categories.
	if items[0].Budget.ID != "b-all" || items[0].CurrentSpending.Cents != 42000 {
		t.Errorf("b-all spending = %d, want 42000", items[0].CurrentSpending.Cents)
	}
	// Category budget only sees its category; January receipt excluded.
	if items[1].Budget.ID != "b-food" || items[1].CurrentSpending.Cents != 12000 {
		t.Errorf("b-food spending = %d, want 12000", items[1].CurrentSpending.Cents)
	}
	if !items[1].IsOverBudget || items[1].Status != core.StatusOverBudget {
		t.Errorf("b-food must be over budget, got %+v", items[1])
	}
}

func TestOverviewDeniedWithoutMembership(t *testing.T) {
	backend := newBackend()
	svc := NewService(access.NewGate(backend), backend, backend, backend)

	_, err := svc.Overview(context.Background(), "stranger", "h1", core.NewDate(2024, 3, 16))
	if !errors.Is(err, core.ErrPermissionDenied) {
		t.Fatalf("got %v, want ErrPermissionDenied", err)
	}
}

func TestOverviewPropagatesFetchFailure(t *testing.T) {
	backend := newBackend()
	boom := errors.New("replica lagging")
	backend.queryErr = boom
	svc := NewService(access.NewGate(backend), backend, backend, backend)

	_, err := svc.Overview(context.Background(), "u1", "h1", core.NewDate(2024, 3, 16))
	if !errors.Is(err, boom) {
		t.Fatalf("collaborator failure must propagate, got %v", err)
	}
}

func TestSuggestionsFromTrailingHistory(t *testing.T) {
	backend := newBackend()
	svc := NewService(access.NewGate(backend), backend, backend, backend)

	// As of April: trailing window is January through March.
	got, err := svc.Suggestions(context.Background(), "u1", "h1", core.NewDate(2024, 4, 10), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("suggestions = %d, want 2", len(got))
	}

	// Rent: 30000 over 3 months -> avg 10000, suggested 11000.
	if got[0].CategoryID != "rent" || got[0].SuggestedMonthly.Cents != 11000 {
		t.Errorf("rent suggestion = %+v", got[0])
	}
	// Food: (12000+9000)/3 = 7000, suggested 7700.
	if got[1].CategoryID != "food" || got[1].AverageMonthly.Cents != 7000 || got[1].SuggestedMonthly.Cents != 7700 {
		t.Errorf("food suggestion = %+v", got[1])
	}
}
