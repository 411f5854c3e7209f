package availability

import (
	"fmt"
	"time"
)

type DayStatus string

const (
	StatusAvailable DayStatus = "available"
	StatusLimited   DayStatus = "limited"
	StatusBooked    DayStatus = "booked"
	StatusBlocked   DayStatus = "blocked"
)

// MaxRangeDays bounds the number of days a single Range call produces.
const MaxRangeDays = 62

const (
	scarceSlots    = 2
	limitedLoadPct = 70
)

type Day struct {
	Date         string
	Status       DayStatus
	Slots        []string
	BookingCount int
	MaxBookings  int
}

func DayAvailability(date string, settings *Settings, reservations []Reservation, slotDuration time.Duration) Day {
	day := Day{Date: date, Slots: []string{}, BookingCount: len(reservationsOn(date, reservations))}
	if settings != nil {
		day.MaxBookings = settings.MaxBookingsPerDay
	}
	if settings == nil || settings.IsBlocked(date) {
		day.Status = StatusBlocked
		return day
	}
	day.Slots = GenerateSlots(date, settings, reservations, slotDuration)
	day.Status = classify(len(day.Slots), day.BookingCount, day.MaxBookings)
	return day
}

func classify(slots, count, limit int) DayStatus {
	switch {
	case (limit > 0 && count >= limit) || slots == 0:
		return StatusBooked
	case slots <= scarceSlots || (limit > 0 && count*100 >= limit*limitedLoadPct):
		return StatusLimited
	default:
		return StatusAvailable
	}
}

// ValidateRange checks that [from, to] is a well-formed range of at most
// MaxRangeDays days and returns its first date and length.
func ValidateRange(from, to string) (time.Time, int, error) {
	start, err := time.Parse(DateLayout, from)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("%w: %q", ErrInvalidDate, from)
	}
	end, err := time.Parse(DateLayout, to)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("%w: %q", ErrInvalidDate, to)
	}
	if end.Before(start) {
		return time.Time{}, 0, fmt.Errorf("%w: %s is before %s", ErrInvalidDate, to, from)
	}
	days := int(end.Sub(start).Hours()/24) + 1
	if days > MaxRangeDays {
		return time.Time{}, 0, fmt.Errorf("%w: %d days, max %d", ErrRangeTooLong, days, MaxRangeDays)
	}
	return start, days, nil
}

// Range builds one Day per date in [from, to], both "YYYY-MM-DD".
func Range(from, to string, settings *Settings, reservations []Reservation, slotDuration time.Duration) ([]Day, error) {
	start, days, err := ValidateRange(from, to)
	if err != nil {
		return nil, err
	}
	out := make([]Day, 0, days)
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i).Format(DateLayout)
		out = append(out, DayAvailability(date, settings, reservations, slotDuration))
	}
	return out, nil
}
