package core

import (
	"errors"
	"strings"
	"time"
)

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

const (
	PeriodMonthly PeriodKind = "monthly"
	PeriodYearly  PeriodKind = "yearly"
	PeriodCustom  PeriodKind = "custom"
)

type (
	// Role is the access level of a membership. Privilege order:
	// owner > admin > member > viewer.
	Role string

	// PeriodKind classifies a budget period.
	PeriodKind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Household is the shared budgeting unit that owns categories,
	// receipts, budgets and memberships.
	Household struct {
		ID        string
		Name      string
		CreatedAt time.Time
	}

	// Membership grants a user access to a household with a role.
	// Inactive memberships are retained for history but grant nothing.
	Membership struct {
		HouseholdID string
		UserID      string
		Role        Role
		IsActive    bool
	}

	Category struct {
		ID          string
		HouseholdID string
		Name        string
		// MonthlyBudget is the legacy per-category ceiling, superseded
		// by Budget entities.
		MonthlyBudget Money
		// IsSystem categories cannot be deleted or renamed.
		IsSystem bool
	}

	// Receipt is a single recorded expense. Its category must belong to
	// the same household as the receipt itself.
	Receipt struct {
		ID          string
		HouseholdID string
		CategoryID  string
		Title       string
		Amount      Money
		Date        Date
		Notes       string
		PhotoRef    string
	}

	// Budget is a planned spending ceiling for a household, optionally
	// scoped to a single category (empty CategoryID = whole household).
	Budget struct {
		ID          string
		HouseholdID string
		CategoryID  string
		Amount      Money
		Period      PeriodKind
		StartDate   Date
		EndDate     Date
		IsRecurring bool
	}
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidPeriod    = errors.New("invalid budget period")
	ErrInvalidRole      = errors.New("invalid role")
	ErrEmptyTitle       = errors.New("empty title")
	ErrEmptyName        = errors.New("empty name")
	ErrCategoryMismatch = errors.New("category belongs to a different household")
	ErrOwnerImmutable   = errors.New("owner membership cannot be removed")
)

// roleRanks orders roles from least to most privileged.
var roleRanks = map[Role]int{
	RoleViewer: 1,
	RoleMember: 2,
	RoleAdmin:  3,
	RoleOwner:  4,
}

func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Rank returns the privilege rank of the role, higher is more privileged.
// Unknown roles rank 0, below viewer.
func (r Role) Rank() int {
	return roleRanks[r]
}

// NewDate creates a Date at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time to its UTC calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, int(m), d)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// DaysUntil returns the number of whole calendar days from d to other.
// Negative when other is before d.
func (d Date) DaysUntil(other Date) int {
	a := time.Date(d.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(other.Year(), other.Time.Month(), other.Time.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a) / (24 * time.Hour))
}

func (m Membership) Validate() error {
	if !m.Role.Valid() {
		return ErrInvalidRole
	}
	if strings.TrimSpace(m.HouseholdID) == "" || strings.TrimSpace(m.UserID) == "" {
		return errors.New("membership requires household and user")
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(c.HouseholdID) == "" {
		return errors.New("category requires a household")
	}
	return nil
}

func (r Receipt) Validate() error {
	if err := r.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(r.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(r.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	// Zero is a legal receipt amount, negatives are not.
	if r.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(r.HouseholdID) == "" {
		return errors.New("receipt requires a household")
	}
	if strings.TrimSpace(r.CategoryID) == "" {
		return errors.New("receipt requires a category")
	}
	return nil
}

func (b Budget) Validate() error {
	if b.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	switch b.Period {
	case PeriodMonthly, PeriodYearly, PeriodCustom:
	default:
		return ErrInvalidPeriod
	}
	if err := b.StartDate.Validate(); err != nil {
		return errors.New("invalid start date: " + err.Error())
	}
	if err := b.EndDate.Validate(); err != nil {
		return errors.New("invalid end date: " + err.Error())
	}
	if b.EndDate.DaysUntil(b.StartDate) > 0 {
		return errors.New("end date must not be before start date")
	}
	if strings.TrimSpace(b.HouseholdID) == "" {
		return errors.New("budget requires a household")
	}
	return nil
}

// CategoryScoped reports whether the budget applies to a single category
// rather than the whole household.
func (b Budget) CategoryScoped() bool {
	return b.CategoryID != ""
}
