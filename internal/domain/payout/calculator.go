package payout

import (
	"time"

	"homepro/internal/domain/shared/money"
)

// CompletedBooking is the money view of a finished booking.
type CompletedBooking struct {
	ID              string
	CapturedAmount  int64
	Currency        string
	CompletedAt     *time.Time
	CheckedOutAt    *time.Time
	ServiceCategory string
	City            string
	CountryCode     string
}

// CompletionTime returns the first completion timestamp present on the booking.
func (b CompletedBooking) CompletionTime() (time.Time, bool) {
	if b.CompletedAt != nil && !b.CompletedAt.IsZero() {
		return *b.CompletedAt, true
	}
	if b.CheckedOutAt != nil && !b.CheckedOutAt.IsZero() {
		return *b.CheckedOutAt, true
	}
	return time.Time{}, false
}

type RateSource string

const (
	RateSourceBaseline RateSource = "baseline"
	RateSourceOverride RateSource = "override"
	RateSourceFallback RateSource = "fallback"
)

// Line is the commission computed for one booking of a batch.
type Line struct {
	BookingID  string
	Gross      int64
	Commission int64
	Rate       float64
	Source     RateSource
	LookupErr  error
}

type Calculation struct {
	GrossAmount      int64
	CommissionAmount int64
	NetAmount        int64
	Currency         string
	BookingIDs       []string
	BookingCount     int
	CommissionRate   float64
	Lines            []Line
}

type Calculator struct {
	Config Config
}

func NewCalculator(cfg Config) Calculator {
	return Calculator{Config: cfg}
}

// FromBookings reduces a batch at the flat country rate of its first booking.
func (c Calculator) FromBookings(bookings []CompletedBooking) Calculation {
	if len(bookings) == 0 {
		return c.empty()
	}
	country := c.batchCountry(bookings)
	currency := c.batchCurrency(bookings, country)
	rate := c.Config.RateFor(country)

	ids := make([]string, 0, len(bookings))
	lines := make([]Line, 0, len(bookings))
	var gross int64
	for _, b := range bookings {
		gross += b.CapturedAmount
		ids = append(ids, b.ID)
		lines = append(lines, Line{
			BookingID:  b.ID,
			Gross:      b.CapturedAmount,
			Commission: money.Money{Amount: b.CapturedAmount}.ApplyRate(rate).Amount,
			Rate:       rate,
			Source:     RateSourceBaseline,
		})
	}
	commission := money.Money{Amount: gross, Currency: currency}.ApplyRate(rate).Amount
	return Calculation{
		GrossAmount:      gross,
		CommissionAmount: commission,
		NetAmount:        gross - commission,
		Currency:         currency,
		BookingIDs:       ids,
		BookingCount:     len(ids),
		CommissionRate:   rate,
		Lines:            lines,
	}
}

// ByCurrency splits a possibly mixed batch into one flat-rate result per currency.
func (c Calculator) ByCurrency(bookings []CompletedBooking) map[string]Calculation {
	groups := make(map[string][]CompletedBooking)
	for _, b := range bookings {
		cur := normalizeCode(b.Currency)
		if cur == "" {
			cur = c.Config.CurrencyFor(b.CountryCode)
		}
		b.Currency = cur
		groups[cur] = append(groups[cur], b)
	}
	out := make(map[string]Calculation, len(groups))
	for cur, group := range groups {
		out[cur] = c.FromBookings(group)
	}
	return out
}

func (c Calculator) empty() Calculation {
	return Calculation{
		Currency:       c.Config.DefaultCurrency,
		BookingIDs:     []string{},
		CommissionRate: c.Config.RateFor(c.Config.DefaultCountry),
	}
}

func (c Calculator) batchCountry(bookings []CompletedBooking) string {
	if code := normalizeCode(bookings[0].CountryCode); code != "" {
		return code
	}
	return normalizeCode(c.Config.DefaultCountry)
}

func (c Calculator) batchCurrency(bookings []CompletedBooking, country string) string {
	if cur := normalizeCode(bookings[0].Currency); cur != "" {
		return cur
	}
	return c.Config.CurrencyFor(country)
}
