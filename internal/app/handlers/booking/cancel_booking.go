package booking

import (
	"context"
	"log/slog"
	"time"

	"homepro/internal/app/commands"
	"homepro/internal/app/dto"
	handlersupport "homepro/internal/app/handlers/support"
	"homepro/internal/app/middleware"
	"homepro/internal/app/outbox"
	"homepro/internal/app/policies"
	"homepro/internal/app/uow"
	domainbooking "homepro/internal/domain/booking"
)

const cancelBookingKey = "booking.cancel"

type CancelBookingCommand struct {
	BookingID       string `validate:"required"`
	CustomerID      string `validate:"required"`
	Reason          string `validate:"max=500"`
	Now             time.Time
	IdempotencyKeyV string
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

func (c CancelBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CancelBookingCommand) ResultPrototype() any { return &CancelBookingResult{} }

type CancelBookingResult struct {
	BookingID        string       `json:"booking_id"`
	Status           string       `json:"status"`
	RefundPercentage int          `json:"refund_percentage"`
	Reason           string       `json:"reason"`
	Refund           dto.MoneyDTO `json:"refund"`
	Penalty          dto.MoneyDTO `json:"penalty"`
	CancelledAt      time.Time    `json:"cancelled_at"`
}

type CancelBookingHandler struct {
	UoWFactory uow.UoWFactory
	Policy     domainbooking.CancellationPolicy
	Refunds    policies.RefundsPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*CancelBookingResult, error) {
	var result *CancelBookingResult
	err := handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
		if err != nil {
			return err
		}
		decision, err := booking.Cancel(policyOrDefault(h.Policy), cmd.Reason, handlersupport.NowOr(cmd.Now))
		if err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, booking); err != nil {
			return err
		}
		if h.Refunds != nil && !booking.RefundAmount.IsZero() {
			if err := h.Refunds.Refund(ctx, string(booking.ID), booking.RefundAmount); err != nil {
				return err
			}
		}
		if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, booking.DrainEvents()); err != nil {
			return err
		}

		_, penalty := decision.Split(booking.Amount)
		result = &CancelBookingResult{
			BookingID:        string(booking.ID),
			Status:           string(booking.Status),
			RefundPercentage: decision.RefundPercentage,
			Reason:           decision.Reason,
			Refund:           dto.MapMoney(booking.RefundAmount),
			Penalty:          dto.MapMoney(penalty),
			CancelledAt:      *booking.CancelledAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	h.logger().InfoContext(ctx, "booking cancelled", "booking_id", result.BookingID, "refund_percentage", result.RefundPercentage)
	return result, nil
}

func (h *CancelBookingHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var _ commands.Handler[CancelBookingCommand, *CancelBookingResult] = (*CancelBookingHandler)(nil)
var _ middleware.IdempotentCommand = CancelBookingCommand{}
