package payout

import (
	"errors"
	"testing"
	"time"
)

func day(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func TestSchedulePeriodAt(t *testing.T) {
	s := DefaultSchedule(time.UTC)
	cases := []struct {
		name  string
		now   time.Time
		start time.Time
		end   time.Time
	}{
		{name: "wednesday", now: day(2025, 3, 12, 10), start: day(2025, 3, 11, 0), end: day(2025, 3, 14, 0)},
		{name: "saturday", now: day(2025, 3, 15, 22), start: day(2025, 3, 14, 0), end: day(2025, 3, 18, 0)},
		{name: "tuesday midnight opens period", now: day(2025, 3, 11, 0), start: day(2025, 3, 11, 0), end: day(2025, 3, 14, 0)},
		{name: "monday", now: day(2025, 3, 10, 23), start: day(2025, 3, 7, 0), end: day(2025, 3, 11, 0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := s.PeriodAt(tc.now)
			if !p.Start.Equal(tc.start) || !p.End.Equal(tc.end) {
				t.Fatalf("expected [%s, %s), got [%s, %s)", tc.start, tc.end, p.Start, p.End)
			}
			if !p.NextPayoutAt.Equal(p.End) {
				t.Fatalf("next payout should match period end")
			}
		})
	}
}

func TestSchedulePrevious(t *testing.T) {
	s := DefaultSchedule(time.UTC)
	prev := s.Previous(s.PeriodAt(day(2025, 3, 12, 10)))
	if !prev.Start.Equal(day(2025, 3, 7, 0)) || !prev.End.Equal(day(2025, 3, 11, 0)) {
		t.Fatalf("unexpected previous period: %+v", prev)
	}
}

func TestIsBookingInPayoutPeriod(t *testing.T) {
	start, end := day(2025, 3, 11, 0), day(2025, 3, 14, 0)
	inside := day(2025, 3, 12, 9)
	outside := day(2025, 3, 14, 0)

	cases := []struct {
		name    string
		booking CompletedBooking
		want    bool
	}{
		{name: "completed inside", booking: CompletedBooking{CompletedAt: completedAt(inside)}, want: true},
		{name: "checked out inside", booking: CompletedBooking{CheckedOutAt: completedAt(inside)}, want: true},
		{name: "completed at end is excluded", booking: CompletedBooking{CompletedAt: completedAt(outside)}, want: false},
		{name: "completed at start is included", booking: CompletedBooking{CompletedAt: completedAt(start)}, want: true},
		{name: "completed wins over checkout", booking: CompletedBooking{CompletedAt: completedAt(outside), CheckedOutAt: completedAt(inside)}, want: false},
		{name: "no completion timestamps", booking: CompletedBooking{}, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsBookingInPayoutPeriod(tc.booking, start, end); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestNewPayoutRecordsEvent(t *testing.T) {
	s := DefaultSchedule(time.UTC)
	period := s.PeriodAt(day(2025, 3, 12, 10))
	calc := NewCalculator(DefaultConfig()).FromBookings([]CompletedBooking{{ID: "b1", CapturedAmount: 100000, CountryCode: "CO"}})

	p, err := NewPayout("p1", "pro-1", period, calc, day(2025, 3, 12, 10))
	if err != nil {
		t.Fatalf("new payout: %v", err)
	}
	if p.Status != StatusScheduled || !p.ScheduledFor.Equal(period.End) {
		t.Fatalf("unexpected payout: %+v", p)
	}
	events := p.PendingEvents()
	if len(events) != 1 || events[0].EventName() != "payout.scheduled" {
		t.Fatalf("expected payout.scheduled event, got %+v", events)
	}

	empty := NewCalculator(DefaultConfig()).FromBookings(nil)
	if _, err := NewPayout("p2", "pro-1", period, empty, time.Now()); !errors.Is(err, ErrEmptyPayout) {
		t.Fatalf("expected ErrEmptyPayout, got %v", err)
	}
}
