package dto

import (
	"time"

	domainbooking "homepro/internal/domain/booking"
)

type CancellationQuote struct {
	BookingID         string    `json:"booking_id"`
	Status            string    `json:"status"`
	ScheduledStart    time.Time `json:"scheduled_start"`
	CanCancel         bool      `json:"can_cancel"`
	RefundPercentage  int       `json:"refund_percentage"`
	Reason            string    `json:"reason"`
	HoursUntilService float64   `json:"hours_until_service"`
	Total             MoneyDTO  `json:"total"`
	Refund            MoneyDTO  `json:"refund"`
	Penalty           MoneyDTO  `json:"penalty"`
}

func MapCancellationQuote(b *domainbooking.Booking, d domainbooking.CancellationDecision) CancellationQuote {
	refund, penalty := d.Split(b.Amount)
	return CancellationQuote{
		BookingID:         string(b.ID),
		Status:            string(b.Status),
		ScheduledStart:    b.ScheduledStart,
		CanCancel:         d.CanCancel,
		RefundPercentage:  d.RefundPercentage,
		Reason:            d.Reason,
		HoursUntilService: d.HoursUntilService,
		Total:             MapMoney(b.Amount),
		Refund:            MapMoney(refund),
		Penalty:           MapMoney(penalty),
	}
}
