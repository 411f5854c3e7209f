package payouts

import (
	"context"
	"log/slog"
	"time"

	"homepro/internal/app/dto"
	handlersupport "homepro/internal/app/handlers/support"
	"homepro/internal/app/queries"
	"homepro/internal/app/uow"
	domainbooking "homepro/internal/domain/booking"
	domainpayout "homepro/internal/domain/payout"
)

const previewPayoutKey = "payouts.preview"

type PreviewPayoutQuery struct {
	ProfessionalID string `validate:"required"`
	ActorID        string
	Now            time.Time
}

func (q PreviewPayoutQuery) Key() string { return previewPayoutKey }

// PreviewPayoutHandler shows what the professional has accrued in the open period.
type PreviewPayoutHandler struct {
	UoWFactory uow.UoWFactory
	Calculator domainpayout.Calculator
	Schedule   domainpayout.Schedule
	Rates      domainpayout.RateLookup
	Logger     *slog.Logger
}

func (h *PreviewPayoutHandler) Handle(ctx context.Context, q PreviewPayoutQuery) (dto.PayoutPreview, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.PayoutPreview{}, err
	}
	defer cleanup()

	period := h.Schedule.PeriodAt(handlersupport.NowOr(q.Now))
	bookings, err := unit.Bookings().ListCompleted(execCtx, domainbooking.CompletedFilter{
		ProfessionalID: q.ProfessionalID,
		From:           period.Start,
		To:             period.End,
	})
	if err != nil {
		return dto.PayoutPreview{}, err
	}

	var warnings []string
	batch := domainpayout.FilterPeriod(completedViews(bookings), period)
	calc, err := h.Calculator.FromBookingsWithDynamicRates(execCtx, batch, h.Rates, fallbackOptions(loggerOrDefault(h.Logger), &warnings))
	if err != nil {
		return dto.PayoutPreview{}, err
	}
	return dto.PayoutPreview{
		ProfessionalID: q.ProfessionalID,
		PeriodStart:    period.Start,
		PeriodEnd:      period.End,
		NextPayoutAt:   period.NextPayoutAt,
		Calculation:    dto.MapPayoutCalculation(calc),
		Warnings:       warnings,
	}, nil
}

var _ queries.Handler[PreviewPayoutQuery, dto.PayoutPreview] = (*PreviewPayoutHandler)(nil)
