package availability

import (
	"context"

	"homepro/internal/app/dto"
	handlersupport "homepro/internal/app/handlers/support"
	"homepro/internal/app/queries"
	"homepro/internal/app/uow"
	domainavailability "homepro/internal/domain/availability"
)

const rangeAvailabilityKey = "availability.range"

type RangeAvailabilityQuery struct {
	ProfessionalID string `validate:"required"`
	From           string `validate:"required,datetime=2006-01-02"`
	To             string `validate:"required,datetime=2006-01-02"`
	SlotMinutes    int    `validate:"gte=0,lte=720"`
}

func (q RangeAvailabilityQuery) Key() string { return rangeAvailabilityKey }

type RangeAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *RangeAvailabilityHandler) Handle(ctx context.Context, q RangeAvailabilityQuery) (dto.AvailabilityCalendar, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.AvailabilityCalendar{}, err
	}
	defer cleanup()

	if _, _, err := domainavailability.ValidateRange(q.From, q.To); err != nil {
		return dto.AvailabilityCalendar{}, err
	}
	settings, reservations, err := load(execCtx, unit, q.ProfessionalID, q.From, q.To)
	if err != nil {
		return dto.AvailabilityCalendar{}, err
	}
	days, err := domainavailability.Range(q.From, q.To, settings, reservations, slotDuration(q.SlotMinutes))
	if err != nil {
		return dto.AvailabilityCalendar{}, err
	}
	return dto.AvailabilityCalendar{
		ProfessionalID: q.ProfessionalID,
		From:           q.From,
		To:             q.To,
		Days:           dto.MapDays(days),
	}, nil
}

var _ queries.Handler[RangeAvailabilityQuery, dto.AvailabilityCalendar] = (*RangeAvailabilityHandler)(nil)
