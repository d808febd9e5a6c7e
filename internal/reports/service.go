package reports

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"focolare/internal/access"
	"focolare/internal/core"
)

// ReceiptSource is the persistence collaborator for receipt queries.
type ReceiptSource interface {
	QueryReceipts(ctx context.Context, householdID string, f core.ReceiptFilter) ([]core.Receipt, error)
}

// CategorySource resolves the categories of a household, used to attach
// category names to breakdown entries.
type CategorySource interface {
	CategoriesByHousehold(ctx context.Context, householdID string) ([]core.Category, error)
}

// Service answers summary requests: it resolves accessible households
// through the gate, computes per-household summaries concurrently and folds
// them into one. A fetch failure for any household fails the whole request;
// partial aggregates are never returned.
type Service struct {
	gate       *access.Gate
	receipts   ReceiptSource
	categories CategorySource
	cache      *Cache // optional
}

func NewService(gate *access.Gate, receipts ReceiptSource, categories CategorySource, cache *Cache) *Service {
	return &Service{gate: gate, receipts: receipts, categories: categories, cache: cache}
}

// HouseholdSummary computes the summary of a single household the user has
// active access to.
func (s *Service) HouseholdSummary(ctx context.Context, userID, householdID string, f core.ReceiptFilter) (core.Summary, error) {
	if err := s.gate.CheckCanAct(ctx, householdID, userID, access.ActionView); err != nil {
		return core.Summary{}, err
	}
	return s.summarize(ctx, householdID, f)
}

// CombinedSummary resolves the allowed household set (empty request means
// every household the user belongs to), computes one summary per household
// in parallel and merges them. An empty allowed set yields the zero
// summary.
func (s *Service) CombinedSummary(ctx context.Context, userID string, requested []string, f core.ReceiptFilter) (core.Summary, error) {
	ids, err := s.gate.ResolveAccessibleHouseholds(ctx, userID, requested)
	if err != nil {
		return core.Summary{}, err
	}
	if len(ids) == 0 {
		return Merge(nil), nil
	}

	// Fan out one summary per household; the first failure cancels the
	// rest. Merge sorts after accumulation, so completion order is
	// irrelevant to the final breakdown ordering.
	summaries := make([]core.Summary, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			sum, err := s.summarize(gctx, id, f)
			if err != nil {
				return err
			}
			summaries[i] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return core.Summary{}, err
	}

	merged := Merge(summaries)
	slog.DebugContext(ctx, "Combined summary computed",
		"user_id", userID,
		"households", len(ids),
		"total_receipts", merged.TotalReceipts,
		"total_cents", merged.TotalAmount.Cents)
	return merged, nil
}

// InvalidateHousehold drops the household's cached summaries. Call on every
// receipt, budget or category mutation.
func (s *Service) InvalidateHousehold(householdID string) {
	if s.cache != nil {
		s.cache.InvalidateHousehold(householdID)
	}
}

func (s *Service) summarize(ctx context.Context, householdID string, f core.ReceiptFilter) (core.Summary, error) {
	if s.cache != nil {
		if sum, ok := s.cache.Get(householdID, f); ok {
			slog.DebugContext(ctx, "Summary cache hit", "household_id", householdID)
			return sum, nil
		}
	}

	receipts, err := s.receipts.QueryReceipts(ctx, householdID, f)
	if err != nil {
		return core.Summary{}, fmt.Errorf("query receipts for household %s: %w", householdID, err)
	}
	categories, err := s.categories.CategoriesByHousehold(ctx, householdID)
	if err != nil {
		return core.Summary{}, fmt.Errorf("load categories for household %s: %w", householdID, err)
	}

	sum := ComputeSummary(receipts, categories, f)
	if s.cache != nil {
		s.cache.Set(householdID, f, sum)
	}
	return sum, nil
}
