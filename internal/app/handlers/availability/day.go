package availability

import (
	"context"
	"time"

	"homepro/internal/app/dto"
	handlersupport "homepro/internal/app/handlers/support"
	"homepro/internal/app/queries"
	"homepro/internal/app/uow"
	domainavailability "homepro/internal/domain/availability"
)

const dayAvailabilityKey = "availability.day"

type DayAvailabilityQuery struct {
	ProfessionalID string `validate:"required"`
	Date           string `validate:"required,datetime=2006-01-02"`
	SlotMinutes    int    `validate:"gte=0,lte=720"`
}

func (q DayAvailabilityQuery) Key() string { return dayAvailabilityKey }

type DayAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *DayAvailabilityHandler) Handle(ctx context.Context, q DayAvailabilityQuery) (dto.DayAvailability, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.DayAvailability{}, err
	}
	defer cleanup()

	settings, reservations, err := load(execCtx, unit, q.ProfessionalID, q.Date, q.Date)
	if err != nil {
		return dto.DayAvailability{}, err
	}
	day := domainavailability.DayAvailability(q.Date, settings, reservations, slotDuration(q.SlotMinutes))
	return dto.MapDay(day), nil
}

func load(ctx context.Context, unit uow.UnitOfWork, professionalID, from, to string) (*domainavailability.Settings, []domainavailability.Reservation, error) {
	settings, err := unit.Availability().Settings(ctx, professionalID)
	if err != nil {
		return nil, nil, err
	}
	reservations, err := handlersupport.ReservationsBetween(ctx, unit.Bookings(), settings, from, to)
	if err != nil {
		return nil, nil, err
	}
	return settings, reservations, nil
}

func slotDuration(minutes int) time.Duration {
	return time.Duration(minutes) * time.Minute
}

var _ queries.Handler[DayAvailabilityQuery, dto.DayAvailability] = (*DayAvailabilityHandler)(nil)
