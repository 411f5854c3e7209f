package payout

import (
	"testing"
	"time"
)

func completedAt(t time.Time) *time.Time { return &t }

func TestFromBookingsFlatRate(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	done := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)
	bookings := []CompletedBooking{
		{ID: "b1", CapturedAmount: 150000, Currency: "COP", CountryCode: "CO", CompletedAt: completedAt(done)},
		{ID: "b2", CapturedAmount: 200000, Currency: "COP", CountryCode: "CO", CompletedAt: completedAt(done)},
		{ID: "b3", CapturedAmount: 120000, Currency: "COP", CountryCode: "CO", CompletedAt: completedAt(done)},
		{ID: "b4", CapturedAmount: 180000, Currency: "COP", CountryCode: "CO", CompletedAt: completedAt(done)},
	}

	got := calc.FromBookings(bookings)
	if got.GrossAmount != 650000 || got.CommissionAmount != 97500 || got.NetAmount != 552500 {
		t.Fatalf("unexpected totals: %+v", got)
	}
	if got.Currency != "COP" || got.BookingCount != 4 || got.CommissionRate != 0.15 {
		t.Fatalf("unexpected batch metadata: %+v", got)
	}
	if len(got.BookingIDs) != 4 || got.BookingIDs[0] != "b1" || got.BookingIDs[3] != "b4" {
		t.Fatalf("booking ids not preserved in order: %v", got.BookingIDs)
	}
	if got.GrossAmount != got.NetAmount+got.CommissionAmount {
		t.Fatalf("gross must equal net plus commission: %+v", got)
	}
}

func TestFromBookingsEmptyBatch(t *testing.T) {
	got := NewCalculator(DefaultConfig()).FromBookings(nil)
	if got.GrossAmount != 0 || got.CommissionAmount != 0 || got.NetAmount != 0 {
		t.Fatalf("expected zero totals, got %+v", got)
	}
	if got.Currency != "COP" {
		t.Fatalf("expected default currency, got %q", got.Currency)
	}
	if got.BookingIDs == nil || len(got.BookingIDs) != 0 {
		t.Fatalf("expected empty non-nil booking ids, got %#v", got.BookingIDs)
	}
}

func TestFromBookingsCountryRates(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	cases := []struct {
		name       string
		country    string
		amount     int64
		currency   string
		commission int64
	}{
		{name: "peru", country: "PE", amount: 100000, currency: "PEN", commission: 12000},
		{name: "argentina", country: "ar", amount: 100000, currency: "ARS", commission: 13000},
		{name: "united states", country: "US", amount: 5000, currency: "USD", commission: 500},
		{name: "unknown country uses default rate", country: "ZZ", amount: 10000, currency: "COP", commission: 1500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := calc.FromBookings([]CompletedBooking{{ID: "b", CapturedAmount: tc.amount, CountryCode: tc.country}})
			if got.Currency != tc.currency {
				t.Fatalf("expected currency %s, got %s", tc.currency, got.Currency)
			}
			if got.CommissionAmount != tc.commission {
				t.Fatalf("expected commission %d, got %d", tc.commission, got.CommissionAmount)
			}
		})
	}
}

func TestByCurrencySplitsBatch(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	got := calc.ByCurrency([]CompletedBooking{
		{ID: "co-1", CapturedAmount: 100000, Currency: "COP", CountryCode: "CO"},
		{ID: "mx-1", CapturedAmount: 50000, Currency: "MXN", CountryCode: "MX"},
		{ID: "co-2", CapturedAmount: 100000, CountryCode: "CO"},
	})
	if len(got) != 2 {
		t.Fatalf("expected two currencies, got %d", len(got))
	}
	cop := got["COP"]
	if cop.GrossAmount != 200000 || cop.CommissionAmount != 30000 || cop.BookingCount != 2 {
		t.Fatalf("unexpected COP subtotal: %+v", cop)
	}
	mxn := got["MXN"]
	if mxn.GrossAmount != 50000 || mxn.CommissionAmount != 7500 {
		t.Fatalf("unexpected MXN subtotal: %+v", mxn)
	}
}

func TestParseCountryRates(t *testing.T) {
	rates, err := ParseCountryRates(`{" co ":{"currency":"cop","rate":0.2}}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rates["CO"].Currency != "COP" || rates["CO"].Rate != 0.2 {
		t.Fatalf("unexpected rates: %+v", rates)
	}
	if _, err := ParseCountryRates("{"); err == nil {
		t.Fatalf("expected decode error")
	}

	cfg := DefaultConfig()
	cfg.Countries["CO"] = CountryRate{Currency: "COP", Rate: 1.2}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected out of range rate to fail validation")
	}
}
