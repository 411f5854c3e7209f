package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"homepro/internal/app/access"
	"homepro/internal/app/commands"
	availabilityapp "homepro/internal/app/handlers/availability"
	bookingapp "homepro/internal/app/handlers/booking"
	payoutapp "homepro/internal/app/handlers/payouts"
	"homepro/internal/app/middleware"
	"homepro/internal/app/outbox"
	"homepro/internal/app/policies"
	"homepro/internal/app/queries"
	"homepro/internal/app/uow"
	domainbooking "homepro/internal/domain/booking"
	domainpayout "homepro/internal/domain/payout"
)

var ErrMissingDependency = errors.New("bootstrap: missing dependency")

// Deps are the ports the application layer is assembled from. Tracer,
// Statements and IDGenerator are optional.
type Deps struct {
	UoWFactory    uow.UoWFactory
	Outbox        outbox.Outbox
	Encoder       outbox.EventEncoder
	Idempotency   middleware.IdempotencyStore
	Validator     middleware.Validator
	Rates         domainpayout.RateLookup
	Refunds       policies.RefundsPort
	Statements    policies.StatementExporter
	Payout        domainpayout.Config
	Schedule      domainpayout.Schedule
	Cancellation  domainbooking.CancellationPolicy
	StrictLookups bool
	Logger        *slog.Logger
	Tracer        trace.Tracer
	IDGenerator   func() string
}

// Application holds the buses with their middleware already applied.
type Application struct {
	Commands commands.Bus
	Queries  queries.Bus
	// CommandKeys and QueryKeys list what is registered, for startup logs.
	CommandKeys []string
	QueryKeys   []string
}

func (d Deps) check() error {
	switch {
	case d.UoWFactory == nil:
		return fmt.Errorf("%w: uow factory", ErrMissingDependency)
	case d.Outbox == nil:
		return fmt.Errorf("%w: outbox", ErrMissingDependency)
	case d.Idempotency == nil:
		return fmt.Errorf("%w: idempotency store", ErrMissingDependency)
	case d.Validator == nil:
		return fmt.Errorf("%w: validator", ErrMissingDependency)
	case d.Rates == nil:
		return fmt.Errorf("%w: rate lookup", ErrMissingDependency)
	case d.Refunds == nil:
		return fmt.Errorf("%w: refunds port", ErrMissingDependency)
	}
	return nil
}

// Build registers every handler and wraps the buses. Commands run through
// logging, tracing, validation, ownership checks, idempotency, a transaction
// and the outbox flush, in that order.
func Build(d Deps) (Application, error) {
	if err := d.check(); err != nil {
		return Application{}, err
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Encoder == nil {
		d.Encoder = outbox.JSONEventEncoder{}
	}
	calculator := domainpayout.NewCalculator(d.Payout)
	ownership := access.Ownership{UoWFactory: d.UoWFactory}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.RequestBookingCommand{}.Key(), &bookingapp.RequestBookingHandler{
		UoWFactory:  d.UoWFactory,
		Outbox:      d.Outbox,
		Encoder:     d.Encoder,
		IDGenerator: d.IDGenerator,
	})
	commands.RegisterHandler(commandBus, bookingapp.TransitionBookingCommand{}.Key(), &bookingapp.TransitionBookingHandler{
		UoWFactory: d.UoWFactory,
		Outbox:     d.Outbox,
		Encoder:    d.Encoder,
	})
	commands.RegisterHandler(commandBus, bookingapp.CancelBookingCommand{}.Key(), &bookingapp.CancelBookingHandler{
		UoWFactory: d.UoWFactory,
		Policy:     d.Cancellation,
		Refunds:    d.Refunds,
		Outbox:     d.Outbox,
		Encoder:    d.Encoder,
		Logger:     d.Logger.With("handler", "booking.cancel"),
	})
	commands.RegisterHandler(commandBus, availabilityapp.UpdateSettingsCommand{}.Key(), &availabilityapp.UpdateSettingsHandler{
		UoWFactory: d.UoWFactory,
		Outbox:     d.Outbox,
		Encoder:    d.Encoder,
	})
	commands.RegisterHandler(commandBus, payoutapp.RunPayoutsCommand{}.Key(), &payoutapp.RunPayoutsHandler{
		UoWFactory:    d.UoWFactory,
		Calculator:    calculator,
		Schedule:      d.Schedule,
		Rates:         d.Rates,
		Statements:    d.Statements,
		Outbox:        d.Outbox,
		Encoder:       d.Encoder,
		Logger:        d.Logger.With("handler", "payouts.run"),
		IDGenerator:   d.IDGenerator,
		StrictLookups: d.StrictLookups,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, bookingapp.CancellationQuoteQuery{}.Key(), &bookingapp.CancellationQuoteHandler{
		UoWFactory: d.UoWFactory,
		Policy:     d.Cancellation,
	})
	queries.RegisterHandler(queryBus, payoutapp.PreviewPayoutQuery{}.Key(), &payoutapp.PreviewPayoutHandler{
		UoWFactory: d.UoWFactory,
		Calculator: calculator,
		Schedule:   d.Schedule,
		Rates:      d.Rates,
		Logger:     d.Logger.With("handler", "payouts.preview"),
	})
	queries.RegisterHandler(queryBus, availabilityapp.DayAvailabilityQuery{}.Key(), &availabilityapp.DayAvailabilityHandler{UoWFactory: d.UoWFactory})
	queries.RegisterHandler(queryBus, availabilityapp.RangeAvailabilityQuery{}.Key(), &availabilityapp.RangeAvailabilityHandler{UoWFactory: d.UoWFactory})
	queries.RegisterHandler(queryBus, availabilityapp.SlotCheckQuery{}.Key(), &availabilityapp.SlotCheckHandler{UoWFactory: d.UoWFactory})
	queries.RegisterHandler(queryBus, availabilityapp.GetSettingsQuery{}.Key(), &availabilityapp.GetSettingsHandler{UoWFactory: d.UoWFactory})

	return Application{
		Commands: middleware.ChainCommands(
			commandBus,
			middleware.Logging(d.Logger),
			middleware.Tracing(d.Tracer),
			middleware.Validation(d.Validator),
			middleware.Authorization(ownership),
			middleware.Idempotency(d.Idempotency, nil),
			middleware.Transaction(d.UoWFactory, nil),
			middleware.OutboxFlush(d.Outbox),
		),
		Queries: middleware.ChainQueries(
			queryBus,
			middleware.QueryTracing(d.Tracer),
			middleware.QueryValidation(d.Validator),
			middleware.QueryAuthorization(ownership),
		),
		CommandKeys: commandBus.Keys(),
		QueryKeys:   queryBus.Keys(),
	}, nil
}
