package payouts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"homepro/internal/app/commands"
	"homepro/internal/app/dto"
	handlersupport "homepro/internal/app/handlers/support"
	"homepro/internal/app/middleware"
	"homepro/internal/app/outbox"
	"homepro/internal/app/policies"
	"homepro/internal/app/uow"
	domainbooking "homepro/internal/domain/booking"
	domainpayout "homepro/internal/domain/payout"
)

const runPayoutsKey = "payouts.run"

// RunPayoutsCommand closes the period that ended most recently before Now.
type RunPayoutsCommand struct {
	Now             time.Time
	IdempotencyKeyV string
}

func (c RunPayoutsCommand) Key() string { return runPayoutsKey }

func (c RunPayoutsCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RunPayoutsCommand) ResultPrototype() any { return &RunPayoutsResult{} }

type FailedPayout struct {
	ProfessionalID string `json:"professional_id"`
	Error          string `json:"error"`
}

// RunPayoutsResult reports one run. The run commits as a single unit: a
// storage failure aborts it and rolls the unit back, while Failed lists the
// professionals whose payout could not be calculated.
type RunPayoutsResult struct {
	PeriodStart time.Time           `json:"period_start"`
	PeriodEnd   time.Time           `json:"period_end"`
	Scheduled   []dto.PayoutSummary `json:"scheduled"`
	Skipped     []string            `json:"skipped"`
	Failed      []FailedPayout      `json:"failed"`
}

type RunPayoutsHandler struct {
	UoWFactory  uow.UoWFactory
	Calculator  domainpayout.Calculator
	Schedule    domainpayout.Schedule
	Rates       domainpayout.RateLookup
	Statements  policies.StatementExporter
	Outbox      outbox.Outbox
	Encoder     outbox.EventEncoder
	Logger      *slog.Logger
	IDGenerator func() string
	// StrictLookups fails a professional's payout on the first failed override
	// lookup instead of settling it at the baseline rate.
	StrictLookups bool
}

func (h *RunPayoutsHandler) Handle(ctx context.Context, cmd RunPayoutsCommand) (*RunPayoutsResult, error) {
	now := handlersupport.NowOr(cmd.Now)
	period := h.Schedule.Previous(h.Schedule.PeriodAt(now))
	logger := loggerOrDefault(h.Logger).With("period_start", period.Start, "period_end", period.End)

	result := &RunPayoutsResult{
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
		Scheduled:   []dto.PayoutSummary{},
		Skipped:     []string{},
		Failed:      []FailedPayout{},
	}
	err := handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		bookings, err := unit.Bookings().ListCompleted(ctx, domainbooking.CompletedFilter{From: period.Start, To: period.End})
		if err != nil {
			return err
		}
		byProfessional := groupByProfessional(bookings)
		ids := make([]string, 0, len(byProfessional))
		for id := range byProfessional {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, professionalID := range ids {
			existing, err := unit.Payouts().ByPeriod(ctx, professionalID, period.Start)
			if err != nil && !errors.Is(err, domainpayout.ErrPayoutNotFound) {
				return fmt.Errorf("payouts: load payout of %s: %w", professionalID, err)
			}
			if existing != nil {
				result.Skipped = append(result.Skipped, professionalID)
				continue
			}
			payout, err := h.preparePayout(ctx, professionalID, period, byProfessional[professionalID], now, logger)
			switch {
			case errors.Is(err, domainpayout.ErrEmptyPayout):
				result.Skipped = append(result.Skipped, professionalID)
				continue
			case err != nil:
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Error("payout not calculated", "professional_id", professionalID, "error", err)
				result.Failed = append(result.Failed, FailedPayout{ProfessionalID: professionalID, Error: err.Error()})
				continue
			}
			if err := unit.Payouts().Save(ctx, payout); err != nil {
				return fmt.Errorf("payouts: save payout of %s: %w", professionalID, err)
			}
			if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, payout.DrainEvents()); err != nil {
				return fmt.Errorf("payouts: record events of %s: %w", professionalID, err)
			}
			result.Scheduled = append(result.Scheduled, dto.MapPayoutSummary(payout))
		}
		return nil
	})
	if err != nil {
		logger.Error("payout run aborted", "error", err)
		return nil, err
	}
	logger.Info("payout run finished", "scheduled", len(result.Scheduled), "skipped", len(result.Skipped), "failed", len(result.Failed))
	return result, nil
}

// preparePayout calculates the payout and exports its statement without
// touching storage.
func (h *RunPayoutsHandler) preparePayout(ctx context.Context, professionalID string, period domainpayout.Period, bookings []*domainbooking.Booking, now time.Time, logger *slog.Logger) (*domainpayout.Payout, error) {
	batch := domainpayout.FilterPeriod(completedViews(bookings), period)
	opts := fallbackOptions(logger, nil)
	if h.StrictLookups {
		opts = domainpayout.StrictLookups()
	}
	calc, err := h.Calculator.FromBookingsWithDynamicRates(ctx, batch, h.Rates, opts)
	if err != nil {
		return nil, err
	}
	payout, err := domainpayout.NewPayout(domainpayout.PayoutID(h.newID()), professionalID, period, calc, now)
	if err != nil {
		return nil, err
	}
	if h.Statements != nil {
		url, err := h.Statements.ExportStatement(ctx, payout)
		if err != nil {
			logger.Warn("payout statement export failed", "professional_id", professionalID, "error", err)
		} else {
			payout.StatementURL = url
		}
	}
	return payout, nil
}

func groupByProfessional(bookings []*domainbooking.Booking) map[string][]*domainbooking.Booking {
	out := make(map[string][]*domainbooking.Booking)
	for _, b := range bookings {
		out[b.ProfessionalID] = append(out[b.ProfessionalID], b)
	}
	return out
}

func (h *RunPayoutsHandler) newID() string {
	if h.IDGenerator != nil {
		return h.IDGenerator()
	}
	return uuid.NewString()
}

var _ commands.Handler[RunPayoutsCommand, *RunPayoutsResult] = (*RunPayoutsHandler)(nil)
var _ middleware.IdempotentCommand = RunPayoutsCommand{}
