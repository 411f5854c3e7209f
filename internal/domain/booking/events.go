package booking

import (
	"time"

	"homepro/internal/domain/shared/money"
)

type BookingAuthorized struct {
	BookingID BookingID
	At        time.Time
}

func (e BookingAuthorized) EventName() string     { return "booking.authorized" }
func (e BookingAuthorized) AggregateID() string   { return string(e.BookingID) }
func (e BookingAuthorized) OccurredAt() time.Time { return e.At }

type BookingConfirmed struct {
	BookingID      BookingID
	ProfessionalID string
	ScheduledStart time.Time
	At             time.Time
}

func (e BookingConfirmed) EventName() string     { return "booking.confirmed" }
func (e BookingConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e BookingConfirmed) OccurredAt() time.Time { return e.At }

type BookingStarted struct {
	BookingID BookingID
	At        time.Time
}

func (e BookingStarted) EventName() string     { return "booking.started" }
func (e BookingStarted) AggregateID() string   { return string(e.BookingID) }
func (e BookingStarted) OccurredAt() time.Time { return e.At }

type BookingCompleted struct {
	BookingID      BookingID
	ProfessionalID string
	Amount         money.Money
	At             time.Time
}

func (e BookingCompleted) EventName() string     { return "booking.completed" }
func (e BookingCompleted) AggregateID() string   { return string(e.BookingID) }
func (e BookingCompleted) OccurredAt() time.Time { return e.At }

type BookingDeclined struct {
	BookingID BookingID
	Reason    string
	At        time.Time
}

func (e BookingDeclined) EventName() string     { return "booking.declined" }
func (e BookingDeclined) AggregateID() string   { return string(e.BookingID) }
func (e BookingDeclined) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID        BookingID
	ProfessionalID   string
	RefundPercentage int
	Refund           money.Money
	Penalty          money.Money
	Reason           string
	At               time.Time
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }
