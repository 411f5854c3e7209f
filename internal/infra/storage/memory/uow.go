package memory

import (
	"context"
	"errors"
	"fmt"

	"homepro/internal/app/uow"
	domainavailability "homepro/internal/domain/availability"
	domainbooking "homepro/internal/domain/booking"
	domainpayout "homepro/internal/domain/payout"
)

var (
	ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")
	ErrConcurrentUpdate     = fmt.Errorf("memory: %w", uow.ErrConcurrentUpdate)
)

// Factory hands out units over shared in-memory repositories. Units give no
// isolation and Rollback does not undo saved state. When Outbox is set, a
// unit's Commit releases the events it staged and Rollback drops them.
type Factory struct {
	BookingRepo      domainbooking.Repository
	AvailabilityRepo domainavailability.Repository
	PayoutRepo       domainpayout.Repository
	Outbox           *Outbox
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.BookingRepo == nil || f.AvailabilityRepo == nil || f.PayoutRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{bookings: f.BookingRepo, availability: f.AvailabilityRepo, payouts: f.PayoutRepo, outbox: f.Outbox}, nil
}

type Unit struct {
	bookings     domainbooking.Repository
	availability domainavailability.Repository
	payouts      domainpayout.Repository
	outbox       *Outbox
}

type stageKey struct{}

// InjectContext tags ctx with the unit so the outbox stages its records apart
// from those of concurrent units.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, stageKey{}, u)
}

func stageFrom(ctx context.Context) *Unit {
	u, _ := ctx.Value(stageKey{}).(*Unit)
	return u
}

func (u *Unit) Bookings() domainbooking.Repository { return u.bookings }

func (u *Unit) Availability() domainavailability.Repository { return u.availability }

func (u *Unit) Payouts() domainpayout.Repository { return u.payouts }

func (u *Unit) Commit(ctx context.Context) error {
	if u.outbox != nil {
		u.outbox.release(u)
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.outbox != nil {
		u.outbox.drop(u)
	}
	return nil
}

var _ uow.ContextInjector = (*Unit)(nil)
