package availability

import (
	"context"

	"homepro/internal/app/dto"
	handlersupport "homepro/internal/app/handlers/support"
	"homepro/internal/app/queries"
	"homepro/internal/app/uow"
	domainavailability "homepro/internal/domain/availability"
)

const slotCheckKey = "availability.slot_check"

type SlotCheckQuery struct {
	ProfessionalID string `validate:"required"`
	Date           string `validate:"required,datetime=2006-01-02"`
	Start          string `validate:"required"`
	SlotMinutes    int    `validate:"gte=0,lte=720"`
}

func (q SlotCheckQuery) Key() string { return slotCheckKey }

type SlotCheckHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *SlotCheckHandler) Handle(ctx context.Context, q SlotCheckQuery) (dto.SlotCheck, error) {
	start, err := domainavailability.ParseClock(q.Start)
	if err != nil {
		return dto.SlotCheck{}, err
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.SlotCheck{}, err
	}
	defer cleanup()

	settings, reservations, err := load(execCtx, unit, q.ProfessionalID, q.Date, q.Date)
	if err != nil {
		return dto.SlotCheck{}, err
	}
	duration := slotDuration(q.SlotMinutes)
	if duration <= 0 {
		duration = domainavailability.DefaultSlotDuration
	}
	return dto.SlotCheck{
		ProfessionalID: q.ProfessionalID,
		Date:           q.Date,
		Start:          start.String(),
		SlotMinutes:    int(duration.Minutes()),
		Available:      domainavailability.IsSlotAvailable(q.Date, start, settings, reservations, duration),
	}, nil
}

var _ queries.Handler[SlotCheckQuery, dto.SlotCheck] = (*SlotCheckHandler)(nil)
