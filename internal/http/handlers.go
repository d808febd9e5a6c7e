package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"focolare/internal/access"
	"focolare/internal/core"
	"focolare/internal/events"
)

const dateLayout = "2006-01-02"

type errorResponse struct {
	Error string `json:"error"`
}

type categorySummaryResponse struct {
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	Count        int    `json:"count"`
	TotalCents   int64  `json:"total_cents"`
	Total        string `json:"total"`
}

type summaryResponse struct {
	TotalReceipts      int                       `json:"total_receipts"`
	TotalAmountCents   int64                     `json:"total_amount_cents"`
	TotalAmount        string                    `json:"total_amount"`
	AverageAmountCents int64                     `json:"average_amount_cents"`
	AverageAmount      string                    `json:"average_amount"`
	ByCategory         []categorySummaryResponse `json:"by_category"`
}

type budgetOverviewResponse struct {
	BudgetID             string  `json:"budget_id"`
	HouseholdID          string  `json:"household_id"`
	CategoryID           string  `json:"category_id,omitempty"`
	AmountCents          int64   `json:"amount_cents"`
	Period               string  `json:"period"`
	StartDate            string  `json:"start_date"`
	EndDate              string  `json:"end_date"`
	CurrentSpendingCents int64   `json:"current_spending_cents"`
	RemainingCents       int64   `json:"remaining_cents"`
	PercentageUsed       float64 `json:"percentage_used"`
	IsOverBudget         bool    `json:"is_over_budget"`
	OnTrack              bool    `json:"on_track"`
	DaysRemaining        int     `json:"days_remaining"`
	AverageDailyCents    int64   `json:"average_daily_spending_cents"`
	ProjectedCents       int64   `json:"projected_spending_cents"`
	Status               string  `json:"status"`
}

type suggestionResponse struct {
	CategoryID            string `json:"category_id"`
	CategoryName          string `json:"category_name"`
	AverageMonthlyCents   int64  `json:"average_monthly_cents"`
	SuggestedMonthlyCents int64  `json:"suggested_monthly_cents"`
	SuggestedMonthly      string `json:"suggested_monthly"`
}

type createReceiptRequest struct {
	HouseholdID string `json:"household_id"`
	CategoryID  string `json:"category_id"`
	Title       string `json:"title"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Notes       string `json:"notes"`
	PhotoRef    string `json:"photo_ref"`
}

type receiptResponse struct {
	ID          string `json:"id"`
	HouseholdID string `json:"household_id"`
	CategoryID  string `json:"category_id"`
	Title       string `json:"title"`
	AmountCents int64  `json:"amount_cents"`
	Date        string `json:"date"`
	Notes       string `json:"notes,omitempty"`
	PhotoRef    string `json:"photo_ref,omitempty"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	filter, err := parseReceiptFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	requested := splitParam(r.URL.Query().Get("household_ids"))

	sum, err := s.summaries.CombinedSummary(r.Context(), userID, requested, filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := summaryResponse{
		TotalReceipts:      sum.TotalReceipts,
		TotalAmountCents:   sum.TotalAmount.Cents,
		TotalAmount:        sum.TotalAmount.String(),
		AverageAmountCents: sum.AverageAmount.Cents,
		AverageAmount:      sum.AverageAmount.String(),
		ByCategory:         make([]categorySummaryResponse, 0, len(sum.ByCategory)),
	}
	for _, entry := range sum.ByCategory {
		resp.ByCategory = append(resp.ByCategory, categorySummaryResponse{
			CategoryID:   entry.CategoryID,
			CategoryName: entry.CategoryName,
			Count:        entry.Count,
			TotalCents:   entry.Total.Cents,
			Total:        entry.Total.String(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBudgetOverview(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	householdID := r.URL.Query().Get("household_id")
	if householdID == "" {
		writeError(w, http.StatusBadRequest, "household_id is required")
		return
	}
	asOf, err := parseDateParam(r, "as_of")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := s.budgets.Overview(r.Context(), userID, householdID, asOf)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := make([]budgetOverviewResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, budgetOverviewResponse{
			BudgetID:             item.Budget.ID,
			HouseholdID:          item.Budget.HouseholdID,
			CategoryID:           item.Budget.CategoryID,
			AmountCents:          item.Budget.Amount.Cents,
			Period:               string(item.Budget.Period),
			StartDate:            item.Budget.StartDate.Format(dateLayout),
			EndDate:              item.Budget.EndDate.Format(dateLayout),
			CurrentSpendingCents: item.CurrentSpending.Cents,
			RemainingCents:       item.Remaining.Cents,
			PercentageUsed:       item.PercentageUsed,
			IsOverBudget:         item.IsOverBudget,
			OnTrack:              item.OnTrack,
			DaysRemaining:        item.DaysRemaining,
			AverageDailyCents:    item.AverageDailySpending.Cents,
			ProjectedCents:       item.ProjectedSpending.Cents,
			Status:               item.Status,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBudgetSuggestions(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	householdID := r.URL.Query().Get("household_id")
	if householdID == "" {
		writeError(w, http.StatusBadRequest, "household_id is required")
		return
	}
	asOf, err := parseDateParam(r, "as_of")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	months := 0
	if v := r.URL.Query().Get("months"); v != "" {
		months, err = strconv.Atoi(v)
		if err != nil || months < 1 {
			writeError(w, http.StatusBadRequest, "months must be a positive integer")
			return
		}
	}

	suggestions, err := s.budgets.Suggestions(r.Context(), userID, householdID, asOf, months)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := make([]suggestionResponse, 0, len(suggestions))
	for _, sg := range suggestions {
		resp = append(resp, suggestionResponse{
			CategoryID:            sg.CategoryID,
			CategoryName:          sg.CategoryName,
			AverageMonthlyCents:   sg.AverageMonthly.Cents,
			SuggestedMonthlyCents: sg.SuggestedMonthly.Cents,
			SuggestedMonthly:      sg.SuggestedMonthly.String(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateReceipt(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	var req createReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.gate.CheckCanAct(r.Context(), req.HouseholdID, userID, access.ActionManageReceipts); err != nil {
		writeDomainError(w, r, err)
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}
	day, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid date, expected YYYY-MM-DD")
		return
	}

	rec := core.Receipt{
		HouseholdID: req.HouseholdID,
		CategoryID:  req.CategoryID,
		Title:       strings.TrimSpace(req.Title),
		Amount:      core.Money{Cents: cents},
		Date:        core.DateOf(day),
		Notes:       req.Notes,
		PhotoRef:    req.PhotoRef,
	}
	if err := rec.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	saved, err := s.receipts.CreateReceipt(r.Context(), rec)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.afterMutation(r, events.EntityReceipt, events.ActionCreated, saved.HouseholdID, saved.ID)

	writeJSON(w, http.StatusCreated, receiptResponse{
		ID:          saved.ID,
		HouseholdID: saved.HouseholdID,
		CategoryID:  saved.CategoryID,
		Title:       saved.Title,
		AmountCents: saved.Amount.Cents,
		Date:        saved.Date.Format(dateLayout),
		Notes:       saved.Notes,
		PhotoRef:    saved.PhotoRef,
	})
}

func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	id := r.PathValue("id")

	rec, err := s.receipts.GetReceipt(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := s.gate.CheckCanAct(r.Context(), rec.HouseholdID, userID, access.ActionManageReceipts); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := s.receipts.DeleteReceipt(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.afterMutation(r, events.EntityReceipt, events.ActionDeleted, rec.HouseholdID, rec.ID)

	w.WriteHeader(http.StatusNoContent)
}

// afterMutation invalidates the local report cache and, when a publisher
// is configured, notifies other processes. Publish failures are logged,
// never surfaced: the mutation itself already committed.
func (s *Server) afterMutation(r *http.Request, entity, action, householdID, entityID string) {
	s.summaries.InvalidateHousehold(householdID)
	if s.publisher == nil {
		return
	}
	msg := events.NewMutation(entity, action, householdID, entityID)
	if err := s.publisher.PublishMutation(r.Context(), msg); err != nil {
		slog.ErrorContext(r.Context(), "Failed to publish mutation event",
			"error", err,
			"entity", entity,
			"action", action,
			"household_id", householdID)
	}
}

func parseReceiptFilter(r *http.Request) (core.ReceiptFilter, error) {
	q := r.URL.Query()
	var f core.ReceiptFilter
	var err error

	if f.From, err = parseDateValue(q.Get("from")); err != nil {
		return f, fmt.Errorf("invalid 'from' date: %w", err)
	}
	if f.To, err = parseDateValue(q.Get("to")); err != nil {
		return f, fmt.Errorf("invalid 'to' date: %w", err)
	}
	f.CategoryIDs = splitParam(q.Get("category_ids"))
	if v := q.Get("min_amount"); v != "" {
		cents, err := core.ParseDecimalToCents(v)
		if err != nil {
			return f, fmt.Errorf("invalid min_amount %q", v)
		}
		f.MinAmount = &core.Money{Cents: cents}
	}
	if v := q.Get("max_amount"); v != "" {
		cents, err := core.ParseDecimalToCents(v)
		if err != nil {
			return f, fmt.Errorf("invalid max_amount %q", v)
		}
		f.MaxAmount = &core.Money{Cents: cents}
	}
	f.Search = q.Get("q")
	return f, nil
}

func parseDateParam(r *http.Request, name string) (core.Date, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return core.DateOf(time.Now()), nil
	}
	d, err := parseDateValue(v)
	if err != nil {
		return core.Date{}, fmt.Errorf("invalid '%s' date: %w", name, err)
	}
	return d, nil
}

func parseDateValue(v string) (core.Date, error) {
	if v == "" {
		return core.Date{}, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return core.Date{}, fmt.Errorf("expected YYYY-MM-DD, got %q", v)
	}
	return core.DateOf(t), nil
}

func splitParam(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeDomainError maps domain sentinels onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, "permission denied")
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, core.ErrCategoryMismatch):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidPeriod),
		errors.Is(err, core.ErrEmptyTitle),
		errors.Is(err, core.ErrEmptyName):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"error", err, "method", r.Method, "url", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
