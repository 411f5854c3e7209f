package booking

import (
	"context"
	"time"

	"homepro/internal/app/dto"
	handlersupport "homepro/internal/app/handlers/support"
	"homepro/internal/app/queries"
	"homepro/internal/app/uow"
	domainbooking "homepro/internal/domain/booking"
)

const cancellationQuoteKey = "cancellation.quote"

type CancellationQuoteQuery struct {
	BookingID string `validate:"required"`
	Now       time.Time
}

func (q CancellationQuoteQuery) Key() string { return cancellationQuoteKey }

// CancellationQuoteHandler previews what cancelling a booking now would refund.
type CancellationQuoteHandler struct {
	UoWFactory uow.UoWFactory
	Policy     domainbooking.CancellationPolicy
}

func (h *CancellationQuoteHandler) Handle(ctx context.Context, q CancellationQuoteQuery) (dto.CancellationQuote, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.CancellationQuote{}, err
	}
	defer cleanup()

	booking, err := unit.Bookings().ByID(execCtx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return dto.CancellationQuote{}, err
	}
	decision := policyOrDefault(h.Policy).Evaluate(booking.ScheduledStart, booking.Status, handlersupport.NowOr(q.Now))
	return dto.MapCancellationQuote(booking, decision), nil
}

func policyOrDefault(p domainbooking.CancellationPolicy) domainbooking.CancellationPolicy {
	if len(p.Tiers) == 0 {
		return domainbooking.DefaultCancellationPolicy()
	}
	return p
}

var _ queries.Handler[CancellationQuoteQuery, dto.CancellationQuote] = (*CancellationQuoteHandler)(nil)
