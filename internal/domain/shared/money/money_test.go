package money

import (
	"errors"
	"testing"
)

func TestNewNormalizesCurrency(t *testing.T) {
	m, err := New(1500, " cop ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Currency != "COP" {
		t.Fatalf("expected COP, got %q", m.Currency)
	}
	if _, err := New(10, "PESO"); !errors.Is(err, ErrInvalidCurrency) {
		t.Fatalf("expected ErrInvalidCurrency, got %v", err)
	}
}

func TestAddRejectsMismatch(t *testing.T) {
	_, err := Must(100, "COP").Add(Must(100, "USD"))
	if !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("expected ErrCurrencyMismatch, got %v", err)
	}
	_, err = Must(100, "COP").Sub(Money{Amount: 1})
	if !errors.Is(err, ErrInvalidCurrency) {
		t.Fatalf("expected ErrInvalidCurrency, got %v", err)
	}
}

func TestPercent(t *testing.T) {
	cases := []struct {
		amount  int64
		percent int
		want    int64
	}{
		{amount: 150000, percent: 50, want: 75000},
		{amount: 999, percent: 25, want: 249},
		{amount: 999, percent: 0, want: 0},
		{amount: 999, percent: 100, want: 999},
		{amount: 999, percent: 140, want: 999},
	}
	for _, tc := range cases {
		got := Must(tc.amount, "COP").Percent(tc.percent)
		if got.Amount != tc.want || got.Currency != "COP" {
			t.Fatalf("Percent(%d, %d) = %+v, want %d", tc.amount, tc.percent, got, tc.want)
		}
	}
}

func TestApplyRateRounds(t *testing.T) {
	cases := []struct {
		amount int64
		rate   float64
		want   int64
	}{
		{amount: 650000, rate: 0.15, want: 97500},
		{amount: 1001, rate: 0.15, want: 150},
		{amount: 1003, rate: 0.15, want: 150},
		{amount: 3, rate: 0.5, want: 2},
		{amount: -3, rate: 0.5, want: -2},
		{amount: 0, rate: 0.15, want: 0},
	}
	for _, tc := range cases {
		got := Must(tc.amount, "COP").ApplyRate(tc.rate)
		if got.Amount != tc.want {
			t.Fatalf("ApplyRate(%d, %v) = %d, want %d", tc.amount, tc.rate, got.Amount, tc.want)
		}
	}
}
