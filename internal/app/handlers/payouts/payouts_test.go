package payouts_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	payoutsapp "homepro/internal/app/handlers/payouts"
	"homepro/internal/app/outbox"
	domainbooking "homepro/internal/domain/booking"
	domainpayout "homepro/internal/domain/payout"
	"homepro/internal/domain/shared/money"
	"homepro/internal/infra/storage/memory"
)

// Tuesday noon; the previous period is [Fri 2025-03-07, Tue 2025-03-11).
var runAt = time.Date(2025, 3, 11, 12, 0, 0, 0, time.UTC)

type fixture struct {
	factory  memory.Factory
	bookings *memory.BookingRepository
	payouts  *memory.PayoutRepository
	outbox   *memory.Outbox
	rates    *memory.RateTable
}

func newFixture() fixture {
	f := fixture{
		bookings: memory.NewBookingRepository(),
		payouts:  memory.NewPayoutRepository(),
		outbox:   memory.NewOutbox(),
		rates:    memory.NewRateTable(),
	}
	f.factory = memory.Factory{BookingRepo: f.bookings, AvailabilityRepo: memory.NewAvailabilityRepository(), PayoutRepo: f.payouts, Outbox: f.outbox}
	return f
}

func (f fixture) completed(t *testing.T, id, professionalID string, at time.Time, amount int64) {
	t.Helper()
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:              domainbooking.BookingID(id),
		ProfessionalID:  professionalID,
		CustomerID:      "cust-1",
		ServiceCategory: "plumbing",
		City:            "bogota",
		CountryCode:     "CO",
		ScheduledStart:  at.Add(-2 * time.Hour),
		Duration:        time.Hour,
		Amount:          money.Money{Amount: amount, Currency: "COP"},
		CreatedAt:       at.Add(-48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("new booking: %v", err)
	}
	for _, step := range []func(time.Time) error{b.Authorize, b.Confirm, b.Start, b.Complete} {
		if err := step(at); err != nil {
			t.Fatalf("advance booking: %v", err)
		}
	}
	if err := f.bookings.Save(context.Background(), b); err != nil {
		t.Fatalf("save booking: %v", err)
	}
}

type fakeStatements struct{ exported []string }

func (s *fakeStatements) ExportStatement(ctx context.Context, p *domainpayout.Payout) (string, error) {
	s.exported = append(s.exported, p.ProfessionalID)
	return "https://statements.example/" + p.ProfessionalID, nil
}

func (f fixture) runHandler(rates domainpayout.RateLookup, statements *fakeStatements) *payoutsapp.RunPayoutsHandler {
	n := 0
	h := &payoutsapp.RunPayoutsHandler{
		UoWFactory:  f.factory,
		Calculator:  domainpayout.NewCalculator(domainpayout.DefaultConfig()),
		Schedule:    domainpayout.DefaultSchedule(time.UTC),
		Rates:       rates,
		Outbox:      f.outbox,
		Encoder:     outbox.JSONEventEncoder{},
		IDGenerator: func() string { n++; return fmt.Sprintf("payout-%d", n) },
	}
	if statements != nil {
		h.Statements = statements
	}
	return h
}

func TestRunPayoutsSchedulesClosedPeriodOnce(t *testing.T) {
	f := newFixture()
	f.rates.Set("plumbing", "bogota", 0.10)
	f.completed(t, "b-1", "pro-1", time.Date(2025, 3, 8, 15, 0, 0, 0, time.UTC), 100000)
	f.completed(t, "b-2", "pro-1", time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC), 50000)
	f.completed(t, "b-3", "pro-1", time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC), 70000)
	f.completed(t, "b-4", "pro-2", time.Date(2025, 3, 6, 9, 0, 0, 0, time.UTC), 70000)
	statements := &fakeStatements{}
	h := f.runHandler(f.rates, statements)

	res, err := h.Handle(context.Background(), payoutsapp.RunPayoutsCommand{Now: runAt})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.PeriodStart.Equal(time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)) || !res.PeriodEnd.Equal(time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected period %s - %s", res.PeriodStart, res.PeriodEnd)
	}
	if len(res.Scheduled) != 1 || len(res.Failed) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	got := res.Scheduled[0]
	if got.ProfessionalID != "pro-1" || got.Calculation.Gross.Amount != 150000 || got.Calculation.Commission.Amount != 15000 || got.Calculation.BookingCount != 2 {
		t.Fatalf("unexpected payout: %+v", got)
	}
	if got.StatementURL == "" || len(statements.exported) != 1 {
		t.Fatalf("statement not exported: %+v", got)
	}
	if ready := f.outbox.Ready(); len(ready) != 1 {
		t.Fatalf("expected one payout event, got %v", ready)
	}

	again, err := h.Handle(context.Background(), payoutsapp.RunPayoutsCommand{Now: runAt.Add(time.Hour)})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(again.Scheduled) != 0 || len(again.Skipped) != 1 || again.Skipped[0] != "pro-1" {
		t.Fatalf("second run should skip pro-1: %+v", again)
	}
	if len(f.payouts.List()) != 1 {
		t.Fatalf("expected one stored payout")
	}
}

type brokenRates struct{}

func (brokenRates) CommissionRate(ctx context.Context, key domainpayout.RateKey) (float64, error) {
	return 0, errors.New("connection refused")
}

func TestRunPayoutsLookupFailures(t *testing.T) {
	cases := []struct {
		name       string
		strict     bool
		scheduled  int
		failed     int
		commission int64
	}{
		{name: "falls back to baseline", scheduled: 1, commission: 15000},
		{name: "strict fails the professional", strict: true, failed: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.completed(t, "b-1", "pro-1", time.Date(2025, 3, 8, 15, 0, 0, 0, time.UTC), 100000)
			h := f.runHandler(brokenRates{}, nil)
			h.StrictLookups = tc.strict

			res, err := h.Handle(context.Background(), payoutsapp.RunPayoutsCommand{Now: runAt})
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if len(res.Scheduled) != tc.scheduled || len(res.Failed) != tc.failed {
				t.Fatalf("unexpected result: %+v", res)
			}
			if tc.scheduled == 1 && res.Scheduled[0].Calculation.Commission.Amount != tc.commission {
				t.Fatalf("expected commission %d, got %+v", tc.commission, res.Scheduled[0].Calculation)
			}
		})
	}
}

// flakyPayouts fails to save the payout of one professional.
type flakyPayouts struct {
	domainpayout.Repository
	failFor string
}

var errDiskFull = errors.New("disk full")

func (r flakyPayouts) Save(ctx context.Context, p *domainpayout.Payout) error {
	if p.ProfessionalID == r.failFor {
		return errDiskFull
	}
	return r.Repository.Save(ctx, p)
}

func TestRunPayoutsAbortsOnStorageFailure(t *testing.T) {
	f := newFixture()
	f.completed(t, "b-1", "pro-1", time.Date(2025, 3, 8, 15, 0, 0, 0, time.UTC), 100000)
	f.completed(t, "b-2", "pro-2", time.Date(2025, 3, 9, 15, 0, 0, 0, time.UTC), 80000)
	f.factory.PayoutRepo = flakyPayouts{Repository: f.payouts, failFor: "pro-2"}
	h := f.runHandler(f.rates, nil)

	res, err := h.Handle(context.Background(), payoutsapp.RunPayoutsCommand{Now: runAt})
	if !errors.Is(err, errDiskFull) || res != nil {
		t.Fatalf("expected the run to abort with the storage error, got %+v %v", res, err)
	}
	if ready := f.outbox.Ready(); len(ready) != 0 {
		t.Fatalf("aborted run must not publish events, got %v", ready)
	}
}

func TestPreviewCoversOpenPeriod(t *testing.T) {
	f := newFixture()
	f.completed(t, "b-1", "pro-1", time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC), 100000)
	f.completed(t, "b-2", "pro-1", time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), 100000)
	h := &payoutsapp.PreviewPayoutHandler{
		UoWFactory: f.factory,
		Calculator: domainpayout.NewCalculator(domainpayout.DefaultConfig()),
		Schedule:   domainpayout.DefaultSchedule(time.UTC),
		Rates:      brokenRates{},
	}

	preview, err := h.Handle(context.Background(), payoutsapp.PreviewPayoutQuery{ProfessionalID: "pro-1", Now: runAt})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !preview.NextPayoutAt.Equal(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected next payout %s", preview.NextPayoutAt)
	}
	if preview.Calculation.BookingCount != 1 || preview.Calculation.BookingIDs[0] != "b-1" {
		t.Fatalf("only b-1 is in the open period: %+v", preview.Calculation)
	}
	if len(preview.Warnings) != 1 {
		t.Fatalf("expected one lookup warning, got %v", preview.Warnings)
	}
}
