package mongo

import (
	"errors"
	"reflect"
	"testing"
	"time"

	domainbooking "homepro/internal/domain/booking"
	domainpayout "homepro/internal/domain/payout"
	"homepro/internal/domain/shared/money"
)

func TestBookingDocumentRoundTrip(t *testing.T) {
	start := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	done := start.Add(2 * time.Hour)
	b := &domainbooking.Booking{
		ID:              "bk-1",
		ProfessionalID:  "pro-1",
		CustomerID:      "cus-1",
		ServiceCategory: "plumbing",
		City:            "bogota",
		CountryCode:     "CO",
		ScheduledStart:  start,
		Duration:        90 * time.Minute,
		Amount:          money.Must(150000, "COP"),
		Status:          domainbooking.StatusCompleted,
		CompletedAt:     &done,
		CreatedAt:       start.Add(-48 * time.Hour),
		UpdatedAt:       done,
		Version:         3,
	}
	doc := newBookingDocument(b)
	if doc.CompletionAt == nil || !doc.CompletionAt.Equal(done) {
		t.Fatalf("completion_at not derived: %+v", doc.CompletionAt)
	}
	got := doc.toAggregate()
	if got.Duration != b.Duration || got.Amount != b.Amount || !got.CompletedAt.Equal(done) || got.Version != 3 {
		t.Fatalf("unexpected aggregate: %+v", got)
	}
}

func TestBookingDocumentFallsBackToCheckout(t *testing.T) {
	out := time.Date(2025, 3, 10, 17, 0, 0, 0, time.UTC)
	doc := newBookingDocument(&domainbooking.Booking{ID: "bk-2", Status: domainbooking.StatusCompleted, CheckedOutAt: &out})
	if doc.CompletedAt != nil || doc.CompletionAt == nil || !doc.CompletionAt.Equal(out) {
		t.Fatalf("expected completion_at from checkout, got %+v", doc)
	}
	if doc.toAggregate().CompletedAt != nil {
		t.Fatalf("completed_at must stay empty")
	}
}

func TestPayoutDocumentRoundTrip(t *testing.T) {
	period := domainpayout.Period{
		Start:        time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC),
		End:          time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		NextPayoutAt: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
	}
	calc := domainpayout.Calculation{
		GrossAmount: 200000, CommissionAmount: 25000, NetAmount: 175000, Currency: "COP",
		BookingIDs: []string{"bk-1", "bk-2"}, BookingCount: 2, CommissionRate: 0.125,
		Lines: []domainpayout.Line{
			{BookingID: "bk-1", Gross: 100000, Commission: 10000, Rate: 0.10, Source: domainpayout.RateSourceOverride},
			{BookingID: "bk-2", Gross: 100000, Commission: 15000, Rate: 0.15, Source: domainpayout.RateSourceFallback, LookupErr: errors.New("timeout")},
		},
	}
	p, err := domainpayout.NewPayout("po-1", "pro-1", period, calc, period.End)
	if err != nil {
		t.Fatalf("new payout: %v", err)
	}
	got := newPayoutDocument(p).toAggregate()
	if got.Calculation.NetAmount != 175000 || got.Calculation.BookingCount != 2 || !reflect.DeepEqual(got.Calculation.BookingIDs, calc.BookingIDs) {
		t.Fatalf("unexpected calculation: %+v", got.Calculation)
	}
	if got.Calculation.Lines[1].LookupErr == nil || got.Calculation.Lines[1].LookupErr.Error() != "timeout" {
		t.Fatalf("lookup error lost: %+v", got.Calculation.Lines[1])
	}
	if !got.ScheduledFor.Equal(period.NextPayoutAt) || got.Status != domainpayout.StatusScheduled {
		t.Fatalf("unexpected payout: %+v", got)
	}
}
