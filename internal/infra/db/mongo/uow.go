package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"homepro/internal/app/uow"
	domainavailability "homepro/internal/domain/availability"
	domainbooking "homepro/internal/domain/booking"
	domainpayout "homepro/internal/domain/payout"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
// AvailabilityRepo may live in another store; its writes are not part of the
// Mongo transaction.
type Factory struct {
	DB *mongo.Database

	BookingRepo      domainbooking.Repository
	AvailabilityRepo domainavailability.Repository
	PayoutRepo       domainpayout.Repository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Begin starts a MongoDB session and transaction. Read-only units use
// snapshot reads so range queries see one consistent view.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil || f.BookingRepo == nil || f.AvailabilityRepo == nil || f.PayoutRepo == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(readconcern.Majority()).SetWriteConcern(writeconcern.Majority())
	if opts.ReadOnly {
		txnOpts = txnOpts.SetReadConcern(readconcern.Snapshot())
	}
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		session:      session,
		bookings:     f.BookingRepo,
		availability: f.AvailabilityRepo,
		payouts:      f.PayoutRepo,
	}, nil
}

type Unit struct {
	session mongo.Session

	bookings     domainbooking.Repository
	availability domainavailability.Repository
	payouts      domainpayout.Repository
}

func (u *Unit) Bookings() domainbooking.Repository { return u.bookings }

func (u *Unit) Availability() domainavailability.Repository { return u.availability }

func (u *Unit) Payouts() domainpayout.Repository { return u.payouts }

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext makes the session visible to repositories using ctx.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var _ uow.ContextInjector = (*Unit)(nil)
