package dto

import (
	"time"

	domainpayout "homepro/internal/domain/payout"
)

type PayoutLine struct {
	BookingID  string   `json:"booking_id"`
	Gross      MoneyDTO `json:"gross"`
	Commission MoneyDTO `json:"commission"`
	Rate       float64  `json:"rate"`
	RateSource string   `json:"rate_source"`
}

type PayoutCalculation struct {
	Gross          MoneyDTO     `json:"gross"`
	Commission     MoneyDTO     `json:"commission"`
	Net            MoneyDTO     `json:"net"`
	CommissionRate float64      `json:"commission_rate"`
	BookingCount   int          `json:"booking_count"`
	BookingIDs     []string     `json:"booking_ids"`
	Lines          []PayoutLine `json:"lines"`
}

type PayoutPreview struct {
	ProfessionalID string            `json:"professional_id"`
	PeriodStart    time.Time         `json:"period_start"`
	PeriodEnd      time.Time         `json:"period_end"`
	NextPayoutAt   time.Time         `json:"next_payout_at"`
	Calculation    PayoutCalculation `json:"calculation"`
	Warnings       []string          `json:"warnings,omitempty"`
}

type PayoutSummary struct {
	ID             string            `json:"id"`
	ProfessionalID string            `json:"professional_id"`
	PeriodStart    time.Time         `json:"period_start"`
	PeriodEnd      time.Time         `json:"period_end"`
	ScheduledFor   time.Time         `json:"scheduled_for"`
	Status         string            `json:"status"`
	StatementURL   string            `json:"statement_url,omitempty"`
	Calculation    PayoutCalculation `json:"calculation"`
}

func MapPayoutCalculation(c domainpayout.Calculation) PayoutCalculation {
	ids := c.BookingIDs
	if ids == nil {
		ids = []string{}
	}
	lines := make([]PayoutLine, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, PayoutLine{
			BookingID:  l.BookingID,
			Gross:      amount(l.Gross, c.Currency),
			Commission: amount(l.Commission, c.Currency),
			Rate:       l.Rate,
			RateSource: string(l.Source),
		})
	}
	return PayoutCalculation{
		Gross:          amount(c.GrossAmount, c.Currency),
		Commission:     amount(c.CommissionAmount, c.Currency),
		Net:            amount(c.NetAmount, c.Currency),
		CommissionRate: c.CommissionRate,
		BookingCount:   c.BookingCount,
		BookingIDs:     ids,
		Lines:          lines,
	}
}

func MapPayoutSummary(p *domainpayout.Payout) PayoutSummary {
	return PayoutSummary{
		ID:             string(p.ID),
		ProfessionalID: p.ProfessionalID,
		PeriodStart:    p.PeriodStart,
		PeriodEnd:      p.PeriodEnd,
		ScheduledFor:   p.ScheduledFor,
		Status:         string(p.Status),
		StatementURL:   p.StatementURL,
		Calculation:    MapPayoutCalculation(p.Calculation),
	}
}
