package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"12.34", 1234, false},
		{"12,34", 1234, false},
		{"12.345", 1234, false},
		{"12.346", 1235, false},
		{"0", 0, false},
		{"0.00", 0, false},
		{"7", 700, false},
		{"-1.00", 0, true},
		{"+1.00", 0, true},
		{"1.2.3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDecimalToCents(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDecimalToCents(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMoneyMulRound(t *testing.T) {
	tests := []struct {
		name   string
		cents  int64
		factor float64
		want   int64
	}{
		{"ten percent buffer", 10000, 1.10, 11000},
		{"rounds half up", 105, 1.10, 116}, // 115.5 -> 116
		{"zero amount", 0, 1.10, 0},
		{"identity", 333, 1.0, 333},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Money{Cents: tt.cents}.MulRound(tt.factor)
			if got.Cents != tt.want {
				t.Errorf("MulRound(%d, %v) = %d, want %d", tt.cents, tt.factor, got.Cents, tt.want)
			}
		})
	}
}

func TestMoneyDivRound(t *testing.T) {
	tests := []struct {
		name    string
		cents   int64
		divisor int64
		want    int64
	}{
		{"thirds round to nearest", 10000, 3, 3333},
		{"half rounds up", 5, 2, 3},
		{"zero divisor is safe", 100, 0, 0},
		{"negative divisor is safe", 100, -4, 0},
		{"negative amount", -5, 2, -3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Money{Cents: tt.cents}.DivRound(tt.divisor)
			if got.Cents != tt.want {
				t.Errorf("DivRound(%d, %d) = %d, want %d", tt.cents, tt.divisor, got.Cents, tt.want)
			}
		})
	}
}

func TestMoneyString(t *testing.T) {
	if got := (Money{Cents: -50}).String(); got != "-0.50" {
		t.Errorf("String() = %q, want -0.50", got)
	}
	if got := (Money{Cents: 12005}).String(); got != "120.05" {
		t.Errorf("String() = %q, want 120.05", got)
	}
}
