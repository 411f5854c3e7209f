package dto

import (
	"fmt"
	"sort"
	"strings"
	"time"

	domainavailability "homepro/internal/domain/availability"
)

type DayAvailability struct {
	Date         string   `json:"date"`
	Status       string   `json:"status"`
	Slots        []string `json:"slots"`
	BookingCount int      `json:"booking_count"`
	MaxBookings  int      `json:"max_bookings"`
}

type AvailabilityCalendar struct {
	ProfessionalID string            `json:"professional_id"`
	From           string            `json:"from"`
	To             string            `json:"to"`
	Days           []DayAvailability `json:"days"`
}

type SlotCheck struct {
	ProfessionalID string `json:"professional_id"`
	Date           string `json:"date"`
	Start          string `json:"start"`
	SlotMinutes    int    `json:"slot_minutes"`
	Available      bool   `json:"available"`
}

type WorkingInterval struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type AvailabilitySettings struct {
	ProfessionalID    string                       `json:"professional_id"`
	WeeklyHours       map[string][]WorkingInterval `json:"weekly_hours"`
	BufferMinutes     int                          `json:"buffer_minutes"`
	MaxBookingsPerDay int                          `json:"max_bookings_per_day"`
	BlockedDates      []string                     `json:"blocked_dates"`
	Timezone          string                       `json:"timezone"`
}

func MapDay(d domainavailability.Day) DayAvailability {
	slots := d.Slots
	if slots == nil {
		slots = []string{}
	}
	return DayAvailability{
		Date:         d.Date,
		Status:       string(d.Status),
		Slots:        slots,
		BookingCount: d.BookingCount,
		MaxBookings:  d.MaxBookings,
	}
}

func MapDays(days []domainavailability.Day) []DayAvailability {
	out := make([]DayAvailability, 0, len(days))
	for _, d := range days {
		out = append(out, MapDay(d))
	}
	return out
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
}

func MapSettings(s *domainavailability.Settings) AvailabilitySettings {
	out := AvailabilitySettings{
		ProfessionalID:    s.ProfessionalID,
		WeeklyHours:       make(map[string][]WorkingInterval, len(s.WeeklyHours)),
		BufferMinutes:     int(s.Buffer / time.Minute),
		MaxBookingsPerDay: s.MaxBookingsPerDay,
		BlockedDates:      make([]string, 0, len(s.BlockedDates)),
		Timezone:          "UTC",
	}
	if s.Location != nil {
		out.Timezone = s.Location.String()
	}
	for day, intervals := range s.WeeklyHours {
		name := strings.ToLower(day.String())
		for _, i := range intervals {
			out.WeeklyHours[name] = append(out.WeeklyHours[name], WorkingInterval{Start: i.Start.String(), End: i.End.String()})
		}
	}
	for date := range s.BlockedDates {
		out.BlockedDates = append(out.BlockedDates, date)
	}
	sort.Strings(out.BlockedDates)
	return out
}

// ToDomain parses the wire template. The result is not validated.
func (s AvailabilitySettings) ToDomain() (domainavailability.Settings, error) {
	out := domainavailability.Settings{
		ProfessionalID:    s.ProfessionalID,
		WeeklyHours:       make(map[time.Weekday][]domainavailability.Interval, len(s.WeeklyHours)),
		Buffer:            time.Duration(s.BufferMinutes) * time.Minute,
		MaxBookingsPerDay: s.MaxBookingsPerDay,
		BlockedDates:      make(map[string]struct{}, len(s.BlockedDates)),
	}
	for name, intervals := range s.WeeklyHours {
		day, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return domainavailability.Settings{}, fmt.Errorf("%w: unknown weekday %q", domainavailability.ErrInvalidSettings, name)
		}
		for _, wi := range intervals {
			interval, err := domainavailability.ParseInterval(wi.Start, wi.End)
			if err != nil {
				return domainavailability.Settings{}, err
			}
			out.WeeklyHours[day] = append(out.WeeklyHours[day], interval)
		}
	}
	for _, date := range s.BlockedDates {
		out.BlockedDates[strings.TrimSpace(date)] = struct{}{}
	}
	if tz := strings.TrimSpace(s.Timezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return domainavailability.Settings{}, fmt.Errorf("%w: timezone %q", domainavailability.ErrInvalidSettings, tz)
		}
		out.Location = loc
	}
	return out, nil
}
