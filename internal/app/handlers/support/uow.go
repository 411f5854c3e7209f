package support

import (
	"context"

	"homepro/internal/app/uow"
)

// BeginReadOnlyUnit reuses the unit in ctx or opens a read-only one. The
// returned cleanup is never nil.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, ctx, func() {}, nil
	}
	if factory == nil {
		return nil, ctx, func() {}, uow.ErrUnitOfWorkMissing
	}
	unit, execCtx, err := uow.Begin(ctx, factory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, func() {}, err
	}
	return unit, execCtx, func() { _ = unit.Rollback(execCtx) }, nil
}

// UnitFromContext returns the unit opened by the transaction middleware.
func UnitFromContext(ctx context.Context) (uow.UnitOfWork, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	return unit, nil
}

// WithinUnit runs fn inside the unit already in ctx or, when there is none, in
// a new unit that is committed on success.
func WithinUnit(ctx context.Context, factory uow.UoWFactory, fn func(ctx context.Context, unit uow.UnitOfWork) error) error {
	if unit, ok := uow.FromContext(ctx); ok {
		return fn(ctx, unit)
	}
	if factory == nil {
		return uow.ErrUnitOfWorkMissing
	}
	unit, execCtx, err := uow.Begin(ctx, factory, uow.TxOptions{})
	if err != nil {
		return err
	}
	if err := fn(execCtx, unit); err != nil {
		_ = unit.Rollback(execCtx)
		return err
	}
	return unit.Commit(execCtx)
}
