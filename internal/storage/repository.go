// Package storage persists households, memberships, categories, receipts
// and budgets in SQLite. It is the single implementation behind the
// persistence interfaces the access, reports and budgets packages declare.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"focolare/internal/core"
)

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateHousehold stores a household and its owner membership in one
// transaction. A household without an owner is never observable.
func (r *SQLiteRepository) CreateHousehold(ctx context.Context, name, ownerUserID string) (core.Household, error) {
	if strings.TrimSpace(name) == "" {
		return core.Household{}, core.ErrEmptyName
	}

	h := core.Household{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		CreatedAt: time.Now().UTC(),
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Household{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO households (id, name, created_at) VALUES (?, ?, ?)`,
		h.ID, h.Name, h.CreatedAt)
	if err != nil {
		return core.Household{}, fmt.Errorf("insert household: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO memberships (household_id, user_id, role, is_active) VALUES (?, ?, ?, 1)`,
		h.ID, ownerUserID, string(core.RoleOwner))
	if err != nil {
		return core.Household{}, fmt.Errorf("insert owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Household{}, fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Household created",
		"household_id", h.ID,
		"name", h.Name,
		"owner_user_id", ownerUserID)
	return h, nil
}

// GetHousehold retrieves a household by id.
func (r *SQLiteRepository) GetHousehold(ctx context.Context, id string) (core.Household, error) {
	var h core.Household
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM households WHERE id = ?`, id).
		Scan(&h.ID, &h.Name, &h.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Household{}, core.ErrNotFound
	}
	if err != nil {
		return core.Household{}, fmt.Errorf("get household %s: %w", id, err)
	}
	return h, nil
}

// AddMembership upserts a membership. Re-adding a previously deactivated
// member reactivates the row with the new role.
func (r *SQLiteRepository) AddMembership(ctx context.Context, m core.Membership) error {
	if err := m.Validate(); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO memberships (household_id, user_id, role, is_active)
		 VALUES (?, ?, ?, 1)
		 ON CONFLICT (household_id, user_id)
		 DO UPDATE SET role = excluded.role, is_active = 1`,
		m.HouseholdID, m.UserID, string(m.Role))
	if err != nil {
		return fmt.Errorf("upsert membership: %w", err)
	}

	slog.InfoContext(ctx, "Membership added",
		"household_id", m.HouseholdID,
		"user_id", m.UserID,
		"role", string(m.Role))
	return nil
}

// DeactivateMembership marks a membership inactive. The row is kept for
// history; an inactive membership grants nothing.
func (r *SQLiteRepository) DeactivateMembership(ctx context.Context, householdID, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE memberships SET is_active = 0 WHERE household_id = ? AND user_id = ? AND is_active = 1`,
		householdID, userID)
	if err != nil {
		return fmt.Errorf("deactivate membership: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Membership deactivated",
		"household_id", householdID, "user_id", userID)
	return nil
}

// ActiveMemberships implements access.MembershipSource.
func (r *SQLiteRepository) ActiveMemberships(ctx context.Context, userID string) ([]core.Membership, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT household_id, user_id, role, is_active
		 FROM memberships
		 WHERE user_id = ? AND is_active = 1
		 ORDER BY household_id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("query memberships for user %s: %w", userID, err)
	}
	defer rows.Close()

	var memberships []core.Membership
	for rows.Next() {
		var m core.Membership
		var role string
		if err := rows.Scan(&m.HouseholdID, &m.UserID, &role, &m.IsActive); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		m.Role = core.Role(role)
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memberships: %w", err)
	}
	return memberships, nil
}

// GetMembership retrieves a single membership, active or not.
func (r *SQLiteRepository) GetMembership(ctx context.Context, householdID, userID string) (core.Membership, error) {
	var m core.Membership
	var role string
	err := r.db.QueryRowContext(ctx,
		`SELECT household_id, user_id, role, is_active
		 FROM memberships WHERE household_id = ? AND user_id = ?`,
		householdID, userID).
		Scan(&m.HouseholdID, &m.UserID, &role, &m.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Membership{}, core.ErrNotFound
	}
	if err != nil {
		return core.Membership{}, fmt.Errorf("get membership: %w", err)
	}
	m.Role = core.Role(role)
	return m, nil
}

// CreateCategory stores a category with a fresh id.
func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	c.ID = uuid.NewString()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, household_id, name, monthly_budget_cents, is_system)
		 VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.HouseholdID, c.Name, c.MonthlyBudget.Cents, c.IsSystem)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}

	slog.InfoContext(ctx, "Category created",
		"category_id", c.ID,
		"household_id", c.HouseholdID,
		"name", c.Name)
	return c, nil
}

// CategoriesByHousehold implements reports.CategorySource and
// budgets.CategorySource.
func (r *SQLiteRepository) CategoriesByHousehold(ctx context.Context, householdID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, household_id, name, monthly_budget_cents, is_system
		 FROM categories WHERE household_id = ? ORDER BY name`,
		householdID)
	if err != nil {
		return nil, fmt.Errorf("query categories for household %s: %w", householdID, err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.HouseholdID, &c.Name, &c.MonthlyBudget.Cents, &c.IsSystem); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

// CreateReceipt stores a receipt with a fresh id. The category must exist
// and belong to the receipt's household.
func (r *SQLiteRepository) CreateReceipt(ctx context.Context, rec core.Receipt) (core.Receipt, error) {
	if err := rec.Validate(); err != nil {
		return core.Receipt{}, err
	}

	var categoryHousehold string
	err := r.db.QueryRowContext(ctx,
		`SELECT household_id FROM categories WHERE id = ?`, rec.CategoryID).
		Scan(&categoryHousehold)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Receipt{}, fmt.Errorf("category %s: %w", rec.CategoryID, core.ErrNotFound)
	}
	if err != nil {
		return core.Receipt{}, fmt.Errorf("check category: %w", err)
	}
	if categoryHousehold != rec.HouseholdID {
		return core.Receipt{}, core.ErrCategoryMismatch
	}

	rec.ID = uuid.NewString()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO receipts (id, household_id, category_id, title, amount_cents, receipt_date, notes, photo_ref)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.HouseholdID, rec.CategoryID, rec.Title, rec.Amount.Cents,
		rec.Date.Format(dateLayout), rec.Notes, rec.PhotoRef)
	if err != nil {
		return core.Receipt{}, fmt.Errorf("insert receipt: %w", err)
	}

	slog.InfoContext(ctx, "Receipt saved",
		"receipt_id", rec.ID,
		"household_id", rec.HouseholdID,
		"title", rec.Title,
		"amount_cents", rec.Amount.Cents)
	return rec, nil
}

// GetReceipt retrieves a receipt by id; soft-deleted receipts are not found.
func (r *SQLiteRepository) GetReceipt(ctx context.Context, id string) (core.Receipt, error) {
	var rec core.Receipt
	var day string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, household_id, category_id, title, amount_cents, receipt_date, notes, photo_ref
		 FROM receipts WHERE id = ? AND deleted_at IS NULL`, id).
		Scan(&rec.ID, &rec.HouseholdID, &rec.CategoryID, &rec.Title,
			&rec.Amount.Cents, &day, &rec.Notes, &rec.PhotoRef)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Receipt{}, core.ErrNotFound
	}
	if err != nil {
		return core.Receipt{}, fmt.Errorf("get receipt %s: %w", id, err)
	}
	rec.Date, err = parseDate(day)
	if err != nil {
		return core.Receipt{}, fmt.Errorf("receipt %s: %w", id, err)
	}
	return rec, nil
}

// DeleteReceipt soft-deletes a receipt so it disappears from every query
// while the row is kept for audit.
func (r *SQLiteRepository) DeleteReceipt(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE receipts SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete receipt %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Receipt deleted", "receipt_id", id)
	return nil
}

// QueryReceipts implements reports.ReceiptSource. The filter conditions
// AND together; soft-deleted receipts are always excluded.
func (r *SQLiteRepository) QueryReceipts(ctx context.Context, householdID string, f core.ReceiptFilter) ([]core.Receipt, error) {
	query := strings.Builder{}
	query.WriteString(
		`SELECT id, household_id, category_id, title, amount_cents, receipt_date, notes, photo_ref
		 FROM receipts WHERE household_id = ? AND deleted_at IS NULL`)
	args := []any{householdID}

	if !f.From.IsZero() {
		query.WriteString(" AND receipt_date >= ?")
		args = append(args, f.From.Format(dateLayout))
	}
	if !f.To.IsZero() {
		query.WriteString(" AND receipt_date <= ?")
		args = append(args, f.To.Format(dateLayout))
	}
	if len(f.CategoryIDs) > 0 {
		query.WriteString(" AND category_id IN (?" + strings.Repeat(", ?", len(f.CategoryIDs)-1) + ")")
		for _, id := range f.CategoryIDs {
			args = append(args, id)
		}
	}
	if f.MinAmount != nil {
		query.WriteString(" AND amount_cents >= ?")
		args = append(args, f.MinAmount.Cents)
	}
	if f.MaxAmount != nil {
		query.WriteString(" AND amount_cents <= ?")
		args = append(args, f.MaxAmount.Cents)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		query.WriteString(" AND (title LIKE ? OR notes LIKE ?)")
		pattern := "%" + s + "%"
		args = append(args, pattern, pattern)
	}
	query.WriteString(" ORDER BY receipt_date, id")

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query receipts for household %s: %w", householdID, err)
	}
	defer rows.Close()

	var receipts []core.Receipt
	for rows.Next() {
		var rec core.Receipt
		var day string
		if err := rows.Scan(&rec.ID, &rec.HouseholdID, &rec.CategoryID, &rec.Title,
			&rec.Amount.Cents, &day, &rec.Notes, &rec.PhotoRef); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		rec.Date, err = parseDate(day)
		if err != nil {
			return nil, fmt.Errorf("receipt %s: %w", rec.ID, err)
		}
		receipts = append(receipts, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate receipts: %w", err)
	}
	return receipts, nil
}

// CreateBudget stores a budget with a fresh id. A category-scoped budget
// must reference a category of the same household.
func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	if b.CategoryScoped() {
		var categoryHousehold string
		err := r.db.QueryRowContext(ctx,
			`SELECT household_id FROM categories WHERE id = ?`, b.CategoryID).
			Scan(&categoryHousehold)
		if errors.Is(err, sql.ErrNoRows) {
			return core.Budget{}, fmt.Errorf("category %s: %w", b.CategoryID, core.ErrNotFound)
		}
		if err != nil {
			return core.Budget{}, fmt.Errorf("check category: %w", err)
		}
		if categoryHousehold != b.HouseholdID {
			return core.Budget{}, core.ErrCategoryMismatch
		}
	}

	b.ID = uuid.NewString()
	var categoryID any
	if b.CategoryScoped() {
		categoryID = b.CategoryID
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (id, household_id, category_id, amount_cents, period, start_date, end_date, is_recurring)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.HouseholdID, categoryID, b.Amount.Cents, string(b.Period),
		b.StartDate.Format(dateLayout), b.EndDate.Format(dateLayout), b.IsRecurring)
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget created",
		"budget_id", b.ID,
		"household_id", b.HouseholdID,
		"amount_cents", b.Amount.Cents,
		"period", string(b.Period))
	return b, nil
}

// BudgetsByHousehold implements budgets.BudgetSource.
func (r *SQLiteRepository) BudgetsByHousehold(ctx context.Context, householdID string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, household_id, category_id, amount_cents, period, start_date, end_date, is_recurring
		 FROM budgets WHERE household_id = ? ORDER BY start_date, id`,
		householdID)
	if err != nil {
		return nil, fmt.Errorf("query budgets for household %s: %w", householdID, err)
	}
	defer rows.Close()

	budgets, err := scanBudgets(rows)
	if err != nil {
		return nil, fmt.Errorf("budgets for household %s: %w", householdID, err)
	}
	return budgets, nil
}

// ExpiredRecurringBudgets lists recurring budgets whose period ended before
// asOf. The rollover worker advances them with UpdateBudgetPeriod.
func (r *SQLiteRepository) ExpiredRecurringBudgets(ctx context.Context, asOf core.Date) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, household_id, category_id, amount_cents, period, start_date, end_date, is_recurring
		 FROM budgets WHERE is_recurring = 1 AND end_date < ? ORDER BY end_date, id`,
		asOf.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("query expired recurring budgets: %w", err)
	}
	defer rows.Close()

	budgets, err := scanBudgets(rows)
	if err != nil {
		return nil, fmt.Errorf("expired recurring budgets: %w", err)
	}
	return budgets, nil
}

// UpdateBudgetPeriod moves a budget to a new start/end window, used by the
// recurring rollover.
func (r *SQLiteRepository) UpdateBudgetPeriod(ctx context.Context, id string, start, end core.Date) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET start_date = ?, end_date = ? WHERE id = ?`,
		start.Format(dateLayout), end.Format(dateLayout), id)
	if err != nil {
		return fmt.Errorf("update budget period %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Budget period rolled over",
		"budget_id", id,
		"start_date", start.Format(dateLayout),
		"end_date", end.Format(dateLayout))
	return nil
}

func scanBudgets(rows *sql.Rows) ([]core.Budget, error) {
	var budgets []core.Budget
	for rows.Next() {
		var b core.Budget
		var categoryID sql.NullString
		var period, start, end string
		if err := rows.Scan(&b.ID, &b.HouseholdID, &categoryID, &b.Amount.Cents,
			&period, &start, &end, &b.IsRecurring); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.CategoryID = categoryID.String
		b.Period = core.PeriodKind(period)
		var err error
		if b.StartDate, err = parseDate(start); err != nil {
			return nil, fmt.Errorf("budget %s: %w", b.ID, err)
		}
		if b.EndDate, err = parseDate(end); err != nil {
			return nil, fmt.Errorf("budget %s: %w", b.ID, err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return budgets, nil
}

func parseDate(s string) (core.Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return core.Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return core.DateOf(t), nil
}
