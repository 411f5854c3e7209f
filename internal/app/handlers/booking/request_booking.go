package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"homepro/internal/app/commands"
	handlersupport "homepro/internal/app/handlers/support"
	"homepro/internal/app/middleware"
	"homepro/internal/app/outbox"
	"homepro/internal/app/uow"
	domainavailability "homepro/internal/domain/availability"
	domainbooking "homepro/internal/domain/booking"
	"homepro/internal/domain/shared/money"
)

const requestBookingKey = "booking.request"

type RequestBookingCommand struct {
	ProfessionalID  string    `validate:"required"`
	CustomerID      string    `validate:"required"`
	ServiceCategory string    `validate:"required"`
	City            string    `validate:"required"`
	CountryCode     string    `validate:"required,len=2"`
	ScheduledStart  time.Time `validate:"required"`
	DurationMinutes int       `validate:"required,gt=0,lte=720"`
	AmountMinor     int64     `validate:"gte=0"`
	Currency        string    `validate:"required,len=3"`
	IdempotencyKeyV string
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &RequestBookingResult{} }

type RequestBookingResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

// RequestBookingHandler books a slot after checking it against the
// professional's availability and daily limit.
type RequestBookingHandler struct {
	UoWFactory  uow.UoWFactory
	Outbox      outbox.Outbox
	Encoder     outbox.EventEncoder
	IDGenerator func() string
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*RequestBookingResult, error) {
	amount, err := money.New(cmd.AmountMinor, cmd.Currency)
	if err != nil {
		return nil, err
	}
	duration := time.Duration(cmd.DurationMinutes) * time.Minute

	var result *RequestBookingResult
	err = handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		settings, err := unit.Availability().Settings(ctx, cmd.ProfessionalID)
		if err != nil {
			return err
		}
		if err := ensureSlotOpen(ctx, unit, settings, cmd.ScheduledStart, duration); err != nil {
			return err
		}

		booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
			ID:              domainbooking.BookingID(h.newID()),
			ProfessionalID:  cmd.ProfessionalID,
			CustomerID:      cmd.CustomerID,
			ServiceCategory: cmd.ServiceCategory,
			City:            cmd.City,
			CountryCode:     cmd.CountryCode,
			ScheduledStart:  cmd.ScheduledStart.UTC(),
			Duration:        duration,
			Amount:          amount,
			CreatedAt:       time.Now(),
		})
		if err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, booking); err != nil {
			return err
		}
		if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, booking.DrainEvents()); err != nil {
			return err
		}
		result = &RequestBookingResult{BookingID: string(booking.ID), Status: string(booking.Status)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func ensureSlotOpen(ctx context.Context, unit uow.UnitOfWork, settings *domainavailability.Settings, start time.Time, duration time.Duration) error {
	requested := domainavailability.ReservationFromTimes(start, start.Add(duration), settings.Location)
	reservations, err := handlersupport.ReservationsBetween(ctx, unit.Bookings(), settings, requested.Date, requested.Date)
	if err != nil {
		return err
	}
	if settings.MaxBookingsPerDay > 0 && len(reservations) >= settings.MaxBookingsPerDay {
		return fmt.Errorf("%w: daily limit reached on %s", ErrSlotUnavailable, requested.Date)
	}
	if !domainavailability.IsSlotAvailable(requested.Date, requested.Start, settings, reservations, duration) {
		return fmt.Errorf("%w: %s %s", ErrSlotUnavailable, requested.Date, requested.Start)
	}
	return nil
}

func (h *RequestBookingHandler) newID() string {
	if h.IDGenerator != nil {
		return h.IDGenerator()
	}
	return uuid.NewString()
}

var _ commands.Handler[RequestBookingCommand, *RequestBookingResult] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = RequestBookingCommand{}
