package uow

import (
	"context"
	"errors"

	domainavailability "homepro/internal/domain/availability"
	domainbooking "homepro/internal/domain/booking"
	domainpayout "homepro/internal/domain/payout"
)

// ErrConcurrentUpdate is wrapped by repositories whose optimistic version
// check failed.
var ErrConcurrentUpdate = errors.New("uow: concurrent update detected")

// UnitOfWork groups the repositories touched by one command or query.
type UnitOfWork interface {
	Bookings() domainbooking.Repository
	Availability() domainavailability.Repository
	Payouts() domainpayout.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

type TxOptions struct {
	ReadOnly bool
}

// ContextInjector is implemented by units that carry driver state, such as a
// database session, in the context.
type ContextInjector interface {
	InjectContext(ctx context.Context) context.Context
}

// Begin starts a unit and returns the context handlers must use with it.
func Begin(ctx context.Context, factory UoWFactory, opts TxOptions) (UnitOfWork, context.Context, error) {
	unit, err := factory.Begin(ctx, opts)
	if err != nil {
		return nil, ctx, err
	}
	execCtx := ctx
	if injector, ok := unit.(ContextInjector); ok {
		execCtx = injector.InjectContext(ctx)
	}
	return unit, ContextWithUnitOfWork(execCtx, unit), nil
}
