package support

import (
	"context"
	"time"

	domainavailability "homepro/internal/domain/availability"
	domainbooking "homepro/internal/domain/booking"
)

// Reservations converts the active bookings of a professional into reservations
// on the local calendar of loc.
func Reservations(bookings []*domainbooking.Booking, loc *time.Location) []domainavailability.Reservation {
	out := make([]domainavailability.Reservation, 0, len(bookings))
	for _, b := range bookings {
		if !b.Status.Active() {
			continue
		}
		out = append(out, domainavailability.ReservationFromTimes(b.ScheduledStart, b.ScheduledEnd(), loc))
	}
	return out
}

// ReservationsBetween loads the reservations overlapping the local dates [from, to].
func ReservationsBetween(ctx context.Context, repo domainbooking.Repository, settings *domainavailability.Settings, from, to string) ([]domainavailability.Reservation, error) {
	loc := time.UTC
	if settings.Location != nil {
		loc = settings.Location
	}
	start, err := time.ParseInLocation(domainavailability.DateLayout, from, loc)
	if err != nil {
		return nil, domainavailability.ErrInvalidDate
	}
	end, err := time.ParseInLocation(domainavailability.DateLayout, to, loc)
	if err != nil {
		return nil, domainavailability.ErrInvalidDate
	}
	bookings, err := repo.ListByProfessionalBetween(ctx, settings.ProfessionalID, start, end.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	return Reservations(bookings, loc), nil
}
