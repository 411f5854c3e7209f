package access

import (
	"context"
	"errors"

	availabilityapp "homepro/internal/app/handlers/availability"
	bookingapp "homepro/internal/app/handlers/booking"
	payoutsapp "homepro/internal/app/handlers/payouts"
	handlersupport "homepro/internal/app/handlers/support"
	"homepro/internal/app/middleware"
	"homepro/internal/app/uow"
	domainbooking "homepro/internal/domain/booking"
)

// ErrNotOwner is returned when the caller acts on another professional's data.
var ErrNotOwner = errors.New("access: caller does not own the resource")

// Ownership lets customers cancel only their bookings and professionals act
// only on their own bookings, availability and payouts. An empty ActorID marks
// an in-process caller such as the fixture loader and is let through.
type Ownership struct {
	UoWFactory uow.UoWFactory
}

func (o Ownership) Authorize(ctx context.Context, message any) error {
	switch m := message.(type) {
	case bookingapp.CancelBookingCommand:
		return o.booking(ctx, m.BookingID, func(b *domainbooking.Booking) bool { return b.CustomerID == m.CustomerID })
	case bookingapp.TransitionBookingCommand:
		return o.booking(ctx, m.BookingID, func(b *domainbooking.Booking) bool { return b.ProfessionalID == m.ProfessionalID })
	case availabilityapp.UpdateSettingsCommand:
		return sameActor(m.ActorID, m.ProfessionalID)
	case payoutsapp.PreviewPayoutQuery:
		return sameActor(m.ActorID, m.ProfessionalID)
	}
	return nil
}

func (o Ownership) booking(ctx context.Context, id string, owns func(*domainbooking.Booking) bool) error {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, o.UoWFactory)
	if err != nil {
		return err
	}
	defer cleanup()
	b, err := unit.Bookings().ByID(execCtx, domainbooking.BookingID(id))
	if err != nil {
		return err
	}
	if !owns(b) {
		return bookingapp.ErrBookingNotOwned
	}
	return nil
}

func sameActor(actorID, professionalID string) error {
	if actorID != "" && actorID != professionalID {
		return ErrNotOwner
	}
	return nil
}

var _ middleware.Authorizer = Ownership{}
