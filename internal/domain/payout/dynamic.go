package payout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"homepro/internal/domain/shared/money"
)

var (
	ErrRateNotFound  = errors.New("payout: no commission override")
	ErrMixedCurrency = errors.New("payout: batch mixes currencies")
)

// RateKey identifies an override commission rule.
type RateKey struct {
	ServiceCategory string
	City            string
	EffectiveDate   time.Time
}

// RateLookup resolves override commission rates. Implementations return
// ErrRateNotFound when no rule applies and a *LookupError for failures.
type RateLookup interface {
	CommissionRate(ctx context.Context, key RateKey) (float64, error)
}

// LookupError reports a failed rate lookup for one booking.
type LookupError struct {
	BookingID string
	Key       RateKey
	Err       error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("payout: rate lookup for booking %s (%s/%s): %v", e.BookingID, e.Key.ServiceCategory, e.Key.City, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// DynamicOptions controls how lookup failures are treated.
type DynamicOptions struct {
	// OnLookupError returns nil to fall back to the baseline rate or an error to abort the batch.
	// A nil hook falls back.
	OnLookupError func(booking CompletedBooking, err *LookupError) error
	// Now stamps the effective date of bookings without completion timestamps.
	Now time.Time
}

// StrictLookups aborts the batch on the first lookup failure.
func StrictLookups() DynamicOptions {
	return DynamicOptions{OnLookupError: func(_ CompletedBooking, err *LookupError) error { return err }}
}

// FromBookingsWithDynamicRates computes commission booking by booking at each
// booking's own applicable rate. Lookups run sequentially, one per booking.
func (c Calculator) FromBookingsWithDynamicRates(ctx context.Context, bookings []CompletedBooking, lookup RateLookup, opts DynamicOptions) (Calculation, error) {
	if len(bookings) == 0 {
		return c.empty(), nil
	}
	country := c.batchCountry(bookings)
	currency := c.batchCurrency(bookings, country)
	for _, b := range bookings {
		if cur := normalizeCode(b.Currency); cur != "" && cur != currency {
			return Calculation{}, fmt.Errorf("%w: %s and %s", ErrMixedCurrency, currency, cur)
		}
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	result := Calculation{
		Currency:   currency,
		BookingIDs: make([]string, 0, len(bookings)),
		Lines:      make([]Line, 0, len(bookings)),
	}
	for _, b := range bookings {
		if err := ctx.Err(); err != nil {
			return Calculation{}, err
		}
		line, err := c.dynamicLine(ctx, b, lookup, opts, now)
		if err != nil {
			return Calculation{}, err
		}
		result.GrossAmount += line.Gross
		result.CommissionAmount += line.Commission
		result.BookingIDs = append(result.BookingIDs, b.ID)
		result.Lines = append(result.Lines, line)
	}
	result.BookingCount = len(result.BookingIDs)
	result.NetAmount = result.GrossAmount - result.CommissionAmount
	if result.GrossAmount != 0 {
		result.CommissionRate = float64(result.CommissionAmount) / float64(result.GrossAmount)
	}
	return result, nil
}

func (c Calculator) dynamicLine(ctx context.Context, b CompletedBooking, lookup RateLookup, opts DynamicOptions, now time.Time) (Line, error) {
	baseline := c.Config.RateFor(c.bookingCountry(b))
	line := Line{BookingID: b.ID, Gross: b.CapturedAmount, Rate: baseline, Source: RateSourceBaseline}

	if lookup != nil {
		effective, ok := b.CompletionTime()
		if !ok {
			effective = now
		}
		key := RateKey{ServiceCategory: b.ServiceCategory, City: b.City, EffectiveDate: effective}
		rate, err := lookup.CommissionRate(ctx, key)
		switch {
		case err == nil:
			line.Rate = rate
			line.Source = RateSourceOverride
		case errors.Is(err, ErrRateNotFound):
		default:
			lookupErr := asLookupError(b.ID, key, err)
			if opts.OnLookupError != nil {
				if abort := opts.OnLookupError(b, lookupErr); abort != nil {
					return Line{}, abort
				}
			}
			line.Source = RateSourceFallback
			line.LookupErr = lookupErr
		}
	}
	line.Commission = money.Money{Amount: b.CapturedAmount}.ApplyRate(line.Rate).Amount
	return line, nil
}

func (c Calculator) bookingCountry(b CompletedBooking) string {
	if code := normalizeCode(b.CountryCode); code != "" {
		return code
	}
	return normalizeCode(c.Config.DefaultCountry)
}

func asLookupError(bookingID string, key RateKey, err error) *LookupError {
	var le *LookupError
	if errors.As(err, &le) {
		if le.BookingID == "" {
			le.BookingID = bookingID
		}
		return le
	}
	return &LookupError{BookingID: bookingID, Key: key, Err: err}
}
