package core

import "testing"

func TestRoleRank(t *testing.T) {
	if !(RoleOwner.Rank() > RoleAdmin.Rank() && RoleAdmin.Rank() > RoleMember.Rank() && RoleMember.Rank() > RoleViewer.Rank()) {
		t.Fatal("role ranks must order owner > admin > member > viewer")
	}
	if Role("butler").Valid() {
		t.Error("unknown role must not be valid")
	}
	if Role("butler").Rank() != 0 {
		t.Error("unknown role must rank below viewer")
	}
}

func TestDateDaysUntil(t *testing.T) {
	tests := []struct {
		name string
		a, b Date
		want int
	}{
		{"same day", NewDate(2024, 1, 15), NewDate(2024, 1, 15), 0},
		{"january", NewDate(2024, 1, 1), NewDate(2024, 1, 31), 30},
		{"backwards", NewDate(2024, 2, 10), NewDate(2024, 2, 1), -9},
		{"across leap day", NewDate(2024, 2, 28), NewDate(2024, 3, 1), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.DaysUntil(tt.b); got != tt.want {
				t.Errorf("DaysUntil = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestReceiptValidate(t *testing.T) {
	valid := Receipt{
		HouseholdID: "h1",
		CategoryID:  "c1",
		Title:       "groceries",
		Amount:      Money{Cents: 1250},
		Date:        NewDate(2024, 3, 2),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid receipt rejected: %v", err)
	}

	zero := valid
	zero.Amount = Money{}
	if err := zero.Validate(); err != nil {
		t.Errorf("zero-amount receipt must be allowed, got %v", err)
	}

	neg := valid
	neg.Amount = Money{Cents: -1}
	if err := neg.Validate(); err != ErrInvalidAmount {
		t.Errorf("negative amount: got %v, want ErrInvalidAmount", err)
	}

	untitled := valid
	untitled.Title = "   "
	if err := untitled.Validate(); err != ErrEmptyTitle {
		t.Errorf("blank title: got %v, want ErrEmptyTitle", err)
	}
}

func TestBudgetValidate(t *testing.T) {
	valid := Budget{
		HouseholdID: "h1",
		Amount:      Money{Cents: 20000},
		Period:      PeriodMonthly,
		StartDate:   NewDate(2024, 1, 1),
		EndDate:     NewDate(2024, 1, 31),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid budget rejected: %v", err)
	}

	sameDay := valid
	sameDay.EndDate = sameDay.StartDate
	if err := sameDay.Validate(); err != nil {
		t.Errorf("single-day budget must be allowed, got %v", err)
	}

	inverted := valid
	inverted.EndDate = NewDate(2023, 12, 31)
	if err := inverted.Validate(); err == nil {
		t.Error("end before start must be rejected")
	}

	free := valid
	free.Amount = Money{}
	if err := free.Validate(); err != ErrInvalidAmount {
		t.Errorf("zero budget amount: got %v, want ErrInvalidAmount", err)
	}

	odd := valid
	odd.Period = PeriodKind("fortnightly")
	if err := odd.Validate(); err != ErrInvalidPeriod {
		t.Errorf("unknown period: got %v, want ErrInvalidPeriod", err)
	}
}
