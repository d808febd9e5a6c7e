package core

// Derived report shapes. These are computed fresh per request and are never
// persisted as source-of-truth data.

// CategorySummary is one entry of a summary's category breakdown.
type CategorySummary struct {
	CategoryID   string
	CategoryName string
	Count        int
	Total        Money
}

// Summary aggregates a set of receipts: totals plus a per-category
// breakdown ordered by total descending, category name ascending on ties.
type Summary struct {
	TotalReceipts int
	TotalAmount   Money
	AverageAmount Money
	ByCategory    []CategorySummary
}

// ReceiptFilter narrows a receipt query. All fields are optional and
// AND-combined. Zero dates mean unbounded; nil amounts mean unbounded.
type ReceiptFilter struct {
	From        Date
	To          Date
	CategoryIDs []string
	MinAmount   *Money
	MaxAmount   *Money
	// Search matches case-insensitively as a substring of title or notes.
	Search string
}

// Budget progress status, in precedence order.
const (
	StatusOverBudget = "Over Budget"
	StatusOffTrack   = "Off Track"
	StatusOnTrack    = "On Track"
)

// BudgetOverviewItem is a budget enriched with its computed spending
// metrics as of a given date.
type BudgetOverviewItem struct {
	Budget          Budget
	CurrentSpending Money
	// Remaining may be negative when the budget is exceeded.
	Remaining            Money
	PercentageUsed       float64
	IsOverBudget         bool
	OnTrack              bool
	DaysRemaining        int
	AverageDailySpending Money
	ProjectedSpending    Money
	Status               string
}

// Suggestion is a proposed monthly budget for a category derived from
// trailing spending history.
type Suggestion struct {
	CategoryID   string
	CategoryName string
	// AverageMonthly is the fixed-divisor mean over the trailing window.
	AverageMonthly Money
	// SuggestedMonthly is the average plus a flat 10% buffer.
	SuggestedMonthly Money
}
