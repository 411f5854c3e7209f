package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"homepro/internal/domain/shared/events"
	"homepro/internal/domain/shared/money"
)

var (
	ErrInvalidState           = errors.New("booking: invalid state transition")
	ErrBookingNotFound        = errors.New("booking: not found")
	ErrCancellationNotAllowed = errors.New("booking: cancellation not allowed")
	ErrInvalidAmount          = errors.New("booking: amount must not be negative")
	ErrInvalidDuration        = errors.New("booking: duration must be positive")
)

type BookingID string

type Booking struct {
	ID              BookingID
	ProfessionalID  string
	CustomerID      string
	ServiceCategory string
	City            string
	CountryCode     string
	ScheduledStart  time.Time
	Duration        time.Duration
	Amount          money.Money
	Status          Status
	CompletedAt     *time.Time
	CheckedOutAt    *time.Time
	CancelledAt     *time.Time
	CancelReason    string
	RefundAmount    money.Money
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int64
	events.EventRecorder
}

// CompletedFilter narrows completed bookings to a professional and a completion window.
// Zero values mean “no restriction”.
type CompletedFilter struct {
	ProfessionalID string
	From           time.Time
	To             time.Time
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	ListCompleted(ctx context.Context, filter CompletedFilter) ([]*Booking, error)
	// ListByProfessionalBetween returns bookings whose ScheduledStart is in [from, to).
	ListByProfessionalBetween(ctx context.Context, professionalID string, from, to time.Time) ([]*Booking, error)
}

type CreateParams struct {
	ID              BookingID
	ProfessionalID  string
	CustomerID      string
	ServiceCategory string
	City            string
	CountryCode     string
	ScheduledStart  time.Time
	Duration        time.Duration
	Amount          money.Money
	CreatedAt       time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(params.ProfessionalID) == "" {
		return nil, errors.New("booking: professional id required")
	}
	if strings.TrimSpace(params.CustomerID) == "" {
		return nil, errors.New("booking: customer id required")
	}
	if params.Amount.Amount < 0 {
		return nil, ErrInvalidAmount
	}
	if params.Duration <= 0 {
		return nil, ErrInvalidDuration
	}
	now := params.CreatedAt.UTC()
	return &Booking{
		ID:              params.ID,
		ProfessionalID:  params.ProfessionalID,
		CustomerID:      params.CustomerID,
		ServiceCategory: params.ServiceCategory,
		City:            params.City,
		CountryCode:     strings.ToUpper(params.CountryCode),
		ScheduledStart:  params.ScheduledStart,
		Duration:        params.Duration,
		Amount:          params.Amount,
		Status:          StatusPendingPayment,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// ScheduledEnd is the instant the service slot is released.
func (b *Booking) ScheduledEnd() time.Time {
	return b.ScheduledStart.Add(b.Duration)
}

func (b *Booking) Authorize(now time.Time) error {
	if b.Status != StatusPendingPayment {
		return ErrInvalidState
	}
	b.transition(StatusAuthorized, now)
	b.Record(BookingAuthorized{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Confirm(now time.Time) error {
	if b.Status != StatusAuthorized {
		return ErrInvalidState
	}
	b.transition(StatusConfirmed, now)
	b.Record(BookingConfirmed{BookingID: b.ID, ProfessionalID: b.ProfessionalID, ScheduledStart: b.ScheduledStart, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Start(now time.Time) error {
	if b.Status != StatusConfirmed {
		return ErrInvalidState
	}
	b.transition(StatusInProgress, now)
	b.Record(BookingStarted{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Complete(now time.Time) error {
	if b.Status != StatusInProgress {
		return ErrInvalidState
	}
	b.transition(StatusCompleted, now)
	completed := b.UpdatedAt
	b.CompletedAt = &completed
	b.Record(BookingCompleted{BookingID: b.ID, ProfessionalID: b.ProfessionalID, Amount: b.Amount, At: completed})
	return nil
}

func (b *Booking) Decline(reason string, now time.Time) error {
	if b.Status != StatusPendingPayment && b.Status != StatusAuthorized {
		return ErrInvalidState
	}
	b.transition(StatusDeclined, now)
	b.Record(BookingDeclined{BookingID: b.ID, Reason: reason, At: b.UpdatedAt})
	return nil
}

// Cancel evaluates policy at now and, when allowed, moves the booking to canceled
// keeping the refunded share of the captured amount.
func (b *Booking) Cancel(policy CancellationPolicy, reason string, now time.Time) (CancellationDecision, error) {
	if b.Status == StatusCanceled || b.Status == StatusDeclined {
		return CancellationDecision{}, ErrInvalidState
	}
	decision := policy.Evaluate(b.ScheduledStart, b.Status, now)
	if !decision.CanCancel {
		return decision, fmt.Errorf("%w: %s", ErrCancellationNotAllowed, decision.Reason)
	}
	refund, penalty := decision.Split(b.Amount)
	b.transition(StatusCanceled, now)
	cancelled := b.UpdatedAt
	b.CancelledAt = &cancelled
	b.CancelReason = reason
	b.RefundAmount = refund
	b.Record(BookingCancelled{
		BookingID:        b.ID,
		ProfessionalID:   b.ProfessionalID,
		RefundPercentage: decision.RefundPercentage,
		Refund:           refund,
		Penalty:          penalty,
		Reason:           reason,
		At:               cancelled,
	})
	return decision, nil
}

func (b *Booking) transition(to Status, now time.Time) {
	b.Status = to
	b.UpdatedAt = now.UTC()
}
