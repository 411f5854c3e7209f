package payout

import (
	"context"
	"errors"
	"testing"
)

type stubLookup struct {
	rates map[string]float64
	fail  map[string]error
	calls int
}

func (s *stubLookup) CommissionRate(_ context.Context, key RateKey) (float64, error) {
	s.calls++
	if err, ok := s.fail[key.ServiceCategory]; ok {
		return 0, err
	}
	if rate, ok := s.rates[key.ServiceCategory]; ok {
		return rate, nil
	}
	return 0, ErrRateNotFound
}

func dynamicBatch() []CompletedBooking {
	return []CompletedBooking{
		{ID: "b1", CapturedAmount: 100000, Currency: "COP", CountryCode: "CO", ServiceCategory: "cleaning", City: "bogota"},
		{ID: "b2", CapturedAmount: 100000, Currency: "COP", CountryCode: "CO", ServiceCategory: "plumbing", City: "bogota"},
	}
}

func TestDynamicRatesOverrideAndBaseline(t *testing.T) {
	lookup := &stubLookup{rates: map[string]float64{"cleaning": 0.10}}
	got, err := NewCalculator(DefaultConfig()).FromBookingsWithDynamicRates(context.Background(), dynamicBatch(), lookup, DynamicOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lookup.calls != 2 {
		t.Fatalf("expected one lookup per booking, got %d", lookup.calls)
	}
	if got.CommissionAmount != 25000 || got.GrossAmount != 200000 || got.NetAmount != 175000 {
		t.Fatalf("unexpected totals: %+v", got)
	}
	if got.CommissionRate != 0.125 {
		t.Fatalf("expected effective rate 0.125, got %v", got.CommissionRate)
	}
	if got.Lines[0].Source != RateSourceOverride || got.Lines[1].Source != RateSourceBaseline {
		t.Fatalf("unexpected rate sources: %+v", got.Lines)
	}
}

func TestDynamicRatesFallbackOnFailure(t *testing.T) {
	boom := errors.New("connection refused")
	lookup := &stubLookup{fail: map[string]error{"plumbing": boom}}

	var reported []*LookupError
	opts := DynamicOptions{OnLookupError: func(_ CompletedBooking, err *LookupError) error {
		reported = append(reported, err)
		return nil
	}}
	got, err := NewCalculator(DefaultConfig()).FromBookingsWithDynamicRates(context.Background(), dynamicBatch(), lookup, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reported) != 1 || reported[0].BookingID != "b2" || !errors.Is(reported[0], boom) {
		t.Fatalf("expected failure for b2 to be reported, got %+v", reported)
	}
	if got.Lines[1].Source != RateSourceFallback || got.Lines[1].Commission != 15000 {
		t.Fatalf("expected fallback to baseline rate, got %+v", got.Lines[1])
	}
	if got.CommissionAmount != 30000 {
		t.Fatalf("unexpected commission: %d", got.CommissionAmount)
	}
}

func TestDynamicRatesStrictAborts(t *testing.T) {
	boom := errors.New("timeout")
	lookup := &stubLookup{fail: map[string]error{"cleaning": boom}}
	_, err := NewCalculator(DefaultConfig()).FromBookingsWithDynamicRates(context.Background(), dynamicBatch(), lookup, StrictLookups())
	var le *LookupError
	if !errors.As(err, &le) || le.BookingID != "b1" {
		t.Fatalf("expected lookup error for b1, got %v", err)
	}
	if lookup.calls != 1 {
		t.Fatalf("expected batch to stop after first failure, got %d calls", lookup.calls)
	}
}

func TestDynamicRatesMixedCurrency(t *testing.T) {
	batch := dynamicBatch()
	batch[1].Currency = "USD"
	_, err := NewCalculator(DefaultConfig()).FromBookingsWithDynamicRates(context.Background(), batch, &stubLookup{}, DynamicOptions{})
	if !errors.Is(err, ErrMixedCurrency) {
		t.Fatalf("expected ErrMixedCurrency, got %v", err)
	}
}

func TestDynamicRatesEmptyAndCanceled(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	got, err := calc.FromBookingsWithDynamicRates(context.Background(), nil, &stubLookup{}, DynamicOptions{})
	if err != nil || got.GrossAmount != 0 || got.Currency != "COP" {
		t.Fatalf("unexpected empty result: %+v %v", got, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := calc.FromBookingsWithDynamicRates(ctx, dynamicBatch(), &stubLookup{}, DynamicOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
