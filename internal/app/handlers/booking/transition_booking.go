package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"homepro/internal/app/commands"
	handlersupport "homepro/internal/app/handlers/support"
	"homepro/internal/app/outbox"
	"homepro/internal/app/uow"
	domainbooking "homepro/internal/domain/booking"
)

const transitionBookingKey = "booking.transition"

const (
	ActionAuthorize = "authorize"
	ActionConfirm   = "confirm"
	ActionStart     = "start"
	ActionComplete  = "complete"
	ActionDecline   = "decline"
)

// TransitionBookingCommand moves a booking through its lifecycle on behalf of
// the professional assigned to it.
type TransitionBookingCommand struct {
	BookingID      string `validate:"required"`
	ProfessionalID string `validate:"required"`
	Action         string `validate:"required,oneof=authorize confirm start complete decline"`
	Reason         string `validate:"max=500"`
	Now            time.Time
}

func (c TransitionBookingCommand) Key() string { return transitionBookingKey }

type TransitionBookingResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

type TransitionBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *TransitionBookingHandler) Handle(ctx context.Context, cmd TransitionBookingCommand) (*TransitionBookingResult, error) {
	var result *TransitionBookingResult
	err := handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
		if err != nil {
			return err
		}
		if err := apply(booking, cmd, handlersupport.NowOr(cmd.Now)); err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, booking); err != nil {
			return err
		}
		if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, booking.DrainEvents()); err != nil {
			return err
		}
		result = &TransitionBookingResult{BookingID: string(booking.ID), Status: string(booking.Status)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func apply(b *domainbooking.Booking, cmd TransitionBookingCommand, now time.Time) error {
	switch strings.ToLower(cmd.Action) {
	case ActionAuthorize:
		return b.Authorize(now)
	case ActionConfirm:
		return b.Confirm(now)
	case ActionStart:
		return b.Start(now)
	case ActionComplete:
		return b.Complete(now)
	case ActionDecline:
		return b.Decline(cmd.Reason, now)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, cmd.Action)
	}
}

var _ commands.Handler[TransitionBookingCommand, *TransitionBookingResult] = (*TransitionBookingHandler)(nil)
