package availability

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"homepro/internal/domain/shared/events"
)

var (
	ErrSettingsNotFound = errors.New("availability: settings not found")
	ErrInvalidInterval  = errors.New("availability: invalid working interval")
	ErrInvalidSettings  = errors.New("availability: invalid settings")
	ErrInvalidDate      = errors.New("availability: invalid date")
	ErrRangeTooLong     = errors.New("availability: date range too long")
)

const DateLayout = time.DateOnly

// Settings is the weekly working template of a professional.
type Settings struct {
	ProfessionalID    string
	WeeklyHours       map[time.Weekday][]Interval
	Buffer            time.Duration
	MaxBookingsPerDay int
	BlockedDates      map[string]struct{}
	Location          *time.Location
	Version           int64
	UpdatedAt         time.Time
	events.EventRecorder
}

type Repository interface {
	Settings(ctx context.Context, professionalID string) (*Settings, error)
	Save(ctx context.Context, settings *Settings) error
}

func (s *Settings) Validate() error {
	if strings.TrimSpace(s.ProfessionalID) == "" {
		return fmt.Errorf("%w: professional id required", ErrInvalidSettings)
	}
	if s.Buffer < 0 {
		return fmt.Errorf("%w: negative buffer", ErrInvalidSettings)
	}
	if s.MaxBookingsPerDay < 0 {
		return fmt.Errorf("%w: negative max bookings per day", ErrInvalidSettings)
	}
	for day, intervals := range s.WeeklyHours {
		for _, i := range intervals {
			if !i.Valid() {
				return fmt.Errorf("%w: %s %s-%s", ErrInvalidInterval, day, i.Start, i.End)
			}
		}
	}
	for date := range s.BlockedDates {
		if _, err := time.Parse(DateLayout, date); err != nil {
			return fmt.Errorf("%w: blocked date %q", ErrInvalidDate, date)
		}
	}
	return nil
}

func (s *Settings) IsBlocked(date string) bool {
	_, ok := s.BlockedDates[date]
	return ok
}

func (s *Settings) location() *time.Location {
	if s != nil && s.Location != nil {
		return s.Location
	}
	return time.UTC
}

// Intervals returns the working intervals of the weekday of date.
func (s *Settings) Intervals(date string) ([]Interval, error) {
	day, err := time.ParseInLocation(DateLayout, date, s.location())
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return s.WeeklyHours[day.Weekday()], nil
}

// Replace swaps the template for next and records SettingsUpdated.
func (s *Settings) Replace(next Settings, now time.Time) error {
	next.ProfessionalID = s.ProfessionalID
	if err := next.Validate(); err != nil {
		return err
	}
	s.WeeklyHours = next.WeeklyHours
	s.Buffer = next.Buffer
	s.MaxBookingsPerDay = next.MaxBookingsPerDay
	s.BlockedDates = next.BlockedDates
	if next.Location != nil {
		s.Location = next.Location
	}
	s.UpdatedAt = now.UTC()
	s.Record(SettingsUpdated{ProfessionalID: s.ProfessionalID, BlockedDates: len(s.BlockedDates), At: s.UpdatedAt})
	return nil
}

// Reservation is an existing booking occupying part of a day.
type Reservation struct {
	Date  string
	Start Clock
	End   Clock
}

// ReservationFromTimes converts a booking window into the local calendar of loc.
func ReservationFromTimes(start, end time.Time, loc *time.Location) Reservation {
	if loc == nil {
		loc = time.UTC
	}
	ls, le := start.In(loc), end.In(loc)
	r := Reservation{Date: ls.Format(DateLayout), Start: ClockOf(ls), End: ClockOf(le)}
	if le.Format(DateLayout) != r.Date {
		r.End = endOfDay
	}
	return r
}

func (r Reservation) interval() Interval {
	return Interval{Start: r.Start, End: r.End}
}

func reservationsOn(date string, reservations []Reservation) []Reservation {
	out := make([]Reservation, 0, len(reservations))
	for _, r := range reservations {
		if r.Date == date {
			out = append(out, r)
		}
	}
	return out
}
