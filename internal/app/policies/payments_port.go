package policies

import (
	"context"

	"homepro/internal/domain/shared/money"
)

// RefundsPort issues the refund decided by the cancellation policy.
type RefundsPort interface {
	Refund(ctx context.Context, bookingID string, amount money.Money) error
}
