package memory

import (
	"context"
	"sync"

	"homepro/internal/app/policies"
	"homepro/internal/domain/shared/money"
)

type Refund struct {
	BookingID string
	Amount    money.Money
}

// RefundLedger records refunds instead of calling a payment provider.
type RefundLedger struct {
	mu      sync.Mutex
	refunds []Refund
}

func NewRefundLedger() *RefundLedger {
	return &RefundLedger{}
}

func (l *RefundLedger) Refund(ctx context.Context, bookingID string, amount money.Money) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refunds = append(l.refunds, Refund{BookingID: bookingID, Amount: amount})
	return nil
}

func (l *RefundLedger) Refunds() []Refund {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Refund(nil), l.refunds...)
}

var _ policies.RefundsPort = (*RefundLedger)(nil)
