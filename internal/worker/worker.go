// Package worker hosts the background jobs: cross-process report cache
// invalidation driven by AMQP mutation messages, and the periodic rollover
// of recurring budgets.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"focolare/internal/budgets"
	"focolare/internal/core"
	"focolare/internal/events"
)

// Invalidator drops the cached summaries of a household.
type Invalidator interface {
	InvalidateHousehold(householdID string)
}

// BudgetStore is the persistence surface the rollover needs.
type BudgetStore interface {
	ExpiredRecurringBudgets(ctx context.Context, asOf core.Date) ([]core.Budget, error)
	UpdateBudgetPeriod(ctx context.Context, id string, start, end core.Date) error
}

type Worker struct {
	invalidator Invalidator
	budgets     BudgetStore
}

func NewWorker(invalidator Invalidator, budgets BudgetStore) *Worker {
	return &Worker{invalidator: invalidator, budgets: budgets}
}

// HandleMutation processes one mutation message: any receipt, budget or
// category change invalidates the household's derived reports.
func (w *Worker) HandleMutation(msg *events.MutationMessage) error {
	if msg.HouseholdID == "" {
		return fmt.Errorf("mutation message without household id")
	}

	w.invalidator.InvalidateHousehold(msg.HouseholdID)
	slog.Info("Invalidated household reports",
		"household_id", msg.HouseholdID,
		"entity", msg.Entity,
		"action", msg.Action,
		"entity_id", msg.EntityID)
	return nil
}

// RolloverOnce advances every recurring budget whose period has fully
// elapsed and returns how many were rolled. Individual failures are logged
// and skipped so one bad row cannot stall the rest.
func (w *Worker) RolloverOnce(ctx context.Context, asOf core.Date) (int, error) {
	expired, err := w.budgets.ExpiredRecurringBudgets(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("list expired recurring budgets: %w", err)
	}

	rolled := 0
	for _, b := range expired {
		next, ok := budgets.NextPeriod(b, asOf)
		if !ok {
			continue
		}
		// A budget may lag several periods; advance until it covers asOf.
		for {
			n, ok := budgets.NextPeriod(next, asOf)
			if !ok {
				break
			}
			next = n
		}

		if err := w.budgets.UpdateBudgetPeriod(ctx, b.ID, next.StartDate, next.EndDate); err != nil {
			slog.ErrorContext(ctx, "Failed to roll over budget",
				"budget_id", b.ID, "error", err)
			continue
		}
		w.invalidator.InvalidateHousehold(b.HouseholdID)
		rolled++
	}

	if rolled > 0 {
		slog.InfoContext(ctx, "Recurring budgets rolled over",
			"expired", len(expired), "rolled", rolled)
	}
	return rolled, nil
}

// RunRollover runs the rollover on a fixed interval until the context is
// cancelled. One pass runs immediately on start.
func (w *Worker) RunRollover(ctx context.Context, interval time.Duration) {
	if _, err := w.RolloverOnce(ctx, core.DateOf(time.Now())); err != nil {
		slog.ErrorContext(ctx, "Rollover pass failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping budget rollover", "reason", ctx.Err())
			return
		case <-ticker.C:
			if _, err := w.RolloverOnce(ctx, core.DateOf(time.Now())); err != nil {
				slog.ErrorContext(ctx, "Rollover pass failed", "error", err)
			}
		}
	}
}
