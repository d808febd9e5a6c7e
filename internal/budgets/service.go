package budgets

import (
	"context"
	"fmt"
	"log/slog"

	"focolare/internal/access"
	"focolare/internal/core"
)

// BudgetSource is the persistence collaborator for budget entities.
type BudgetSource interface {
	BudgetsByHousehold(ctx context.Context, householdID string) ([]core.Budget, error)
}

// CategorySource resolves a household's categories.
type CategorySource interface {
	CategoriesByHousehold(ctx context.Context, householdID string) ([]core.Category, error)
}

// Summarizer computes a household spending summary under a filter; the
// report service provides this.
type Summarizer interface {
	HouseholdSummary(ctx context.Context, userID, householdID string, f core.ReceiptFilter) (core.Summary, error)
}

// Service builds budget overviews and suggestions for a household.
type Service struct {
	gate       *access.Gate
	budgets    BudgetSource
	categories CategorySource
	summaries  Summarizer
}

func NewService(gate *access.Gate, budgets BudgetSource, categories CategorySource, summaries Summarizer) *Service {
	return &Service{gate: gate, budgets: budgets, categories: categories, summaries: summaries}
}

// Overview returns every budget of the household enriched with its
// spending metrics as of the given date. Spending is computed by the
// summary aggregator over the budget's period clipped to asOf, scoped to
// the budget's category when it has one.
func (s *Service) Overview(ctx context.Context, userID, householdID string, asOf core.Date) ([]core.BudgetOverviewItem, error) {
	if err := s.gate.CheckCanAct(ctx, householdID, userID, access.ActionView); err != nil {
		return nil, err
	}

	list, err := s.budgets.BudgetsByHousehold(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("load budgets for household %s: %w", householdID, err)
	}

	items := make([]core.BudgetOverviewItem, 0, len(list))
	for _, b := range list {
		sum, err := s.summaries.HouseholdSummary(ctx, userID, householdID, SpendingWindow(b, asOf))
		if err != nil {
			return nil, fmt.Errorf("spending for budget %s: %w", b.ID, err)
		}
		items = append(items, Evaluate(b, sum.TotalAmount, asOf))
	}

	slog.DebugContext(ctx, "Budget overview computed",
		"household_id", householdID, "budgets", len(items))
	return items, nil
}

// Suggestions proposes a monthly budget per category from the trailing
// spending history. Categories that already have an active budget are not
// excluded; callers can cross-filter against the overview.
func (s *Service) Suggestions(ctx context.Context, userID, householdID string, asOf core.Date, months int) ([]core.Suggestion, error) {
	if err := s.gate.CheckCanAct(ctx, householdID, userID, access.ActionView); err != nil {
		return nil, err
	}
	if months < 1 {
		months = DefaultTrailingMonths
	}

	categories, err := s.categories.CategoriesByHousehold(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("load categories for household %s: %w", householdID, err)
	}

	from, to := TrailingWindow(asOf, months)
	sum, err := s.summaries.HouseholdSummary(ctx, userID, householdID, core.ReceiptFilter{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("trailing spending for household %s: %w", householdID, err)
	}

	totals := make(map[string]core.Money, len(sum.ByCategory))
	for _, entry := range sum.ByCategory {
		totals[entry.CategoryID] = entry.Total
	}
	return Suggest(categories, totals, months), nil
}
