package payout

import (
	"context"
	"errors"
	"strings"
	"time"

	"homepro/internal/domain/shared/events"
)

var (
	ErrPayoutNotFound = errors.New("payout: not found")
	ErrPayoutExists   = errors.New("payout: already scheduled for period")
	ErrEmptyPayout    = errors.New("payout: no completed bookings in period")
)

type PayoutID string

type Status string

const StatusScheduled Status = "scheduled"

// Payout is the amount owed to a professional for one closed accrual period.
type Payout struct {
	ID             PayoutID
	ProfessionalID string
	PeriodStart    time.Time
	PeriodEnd      time.Time
	ScheduledFor   time.Time
	Calculation    Calculation
	Status         Status
	StatementURL   string
	CreatedAt      time.Time
	events.EventRecorder
}

type Repository interface {
	Save(ctx context.Context, p *Payout) error
	ByPeriod(ctx context.Context, professionalID string, periodStart time.Time) (*Payout, error)
}

func NewPayout(id PayoutID, professionalID string, period Period, calc Calculation, now time.Time) (*Payout, error) {
	if strings.TrimSpace(professionalID) == "" {
		return nil, errors.New("payout: professional id required")
	}
	if calc.BookingCount == 0 {
		return nil, ErrEmptyPayout
	}
	p := &Payout{
		ID:             id,
		ProfessionalID: professionalID,
		PeriodStart:    period.Start,
		PeriodEnd:      period.End,
		ScheduledFor:   period.NextPayoutAt,
		Calculation:    calc,
		Status:         StatusScheduled,
		CreatedAt:      now.UTC(),
	}
	p.Record(PayoutScheduled{
		PayoutID:       p.ID,
		ProfessionalID: professionalID,
		Currency:       calc.Currency,
		Gross:          calc.GrossAmount,
		Commission:     calc.CommissionAmount,
		Net:            calc.NetAmount,
		BookingIDs:     append([]string(nil), calc.BookingIDs...),
		ScheduledFor:   p.ScheduledFor,
		At:             p.CreatedAt,
	})
	return p, nil
}

type PayoutScheduled struct {
	PayoutID       PayoutID
	ProfessionalID string
	Currency       string
	Gross          int64
	Commission     int64
	Net            int64
	BookingIDs     []string
	ScheduledFor   time.Time
	At             time.Time
}

func (e PayoutScheduled) EventName() string     { return "payout.scheduled" }
func (e PayoutScheduled) AggregateID() string   { return string(e.PayoutID) }
func (e PayoutScheduled) OccurredAt() time.Time { return e.At }
