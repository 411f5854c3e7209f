package payout

import "time"

// Schedule lists the weekdays on which accrued earnings are paid out.
type Schedule struct {
	Days     []time.Weekday
	Location *time.Location
}

type Period struct {
	Start        time.Time
	End          time.Time
	NextPayoutAt time.Time
}

// DefaultSchedule pays out every Tuesday and Friday.
func DefaultSchedule(loc *time.Location) Schedule {
	return Schedule{Days: []time.Weekday{time.Tuesday, time.Friday}, Location: loc}
}

// PeriodAt returns the accrual window [Start, End) containing now. Start is the
// latest payout day at midnight not after now and End the following payout day.
func (s Schedule) PeriodAt(now time.Time) Period {
	loc := s.location()
	local := now.In(loc)
	days := s.days()
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	start := midnight
	for i := 0; i < 7; i++ {
		candidate := midnight.AddDate(0, 0, -i)
		if containsDay(days, candidate.Weekday()) {
			start = candidate
			break
		}
	}
	end := start.AddDate(0, 0, 7)
	for i := 1; i <= 7; i++ {
		candidate := start.AddDate(0, 0, i)
		if containsDay(days, candidate.Weekday()) {
			end = candidate
			break
		}
	}
	return Period{Start: start, End: end, NextPayoutAt: end}
}

// Previous returns the closed period that ended when p started.
func (s Schedule) Previous(p Period) Period {
	return s.PeriodAt(p.Start.Add(-time.Nanosecond))
}

// Contains reports whether t falls inside [Start, End).
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// IsBookingInPayoutPeriod uses CompletedAt, or CheckedOutAt when the former is missing.
func IsBookingInPayoutPeriod(b CompletedBooking, start, end time.Time) bool {
	t, ok := b.CompletionTime()
	if !ok {
		return false
	}
	return Period{Start: start, End: end}.Contains(t)
}

// FilterPeriod keeps the bookings completed inside p.
func FilterPeriod(bookings []CompletedBooking, p Period) []CompletedBooking {
	out := make([]CompletedBooking, 0, len(bookings))
	for _, b := range bookings {
		if IsBookingInPayoutPeriod(b, p.Start, p.End) {
			out = append(out, b)
		}
	}
	return out
}

func (s Schedule) location() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.UTC
}

func (s Schedule) days() []time.Weekday {
	if len(s.Days) == 0 {
		return []time.Weekday{time.Tuesday, time.Friday}
	}
	return s.Days
}

func containsDay(days []time.Weekday, d time.Weekday) bool {
	for _, day := range days {
		if day == d {
			return true
		}
	}
	return false
}
