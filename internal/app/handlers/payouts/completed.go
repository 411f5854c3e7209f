package payouts

import (
	"log/slog"

	domainbooking "homepro/internal/domain/booking"
	domainpayout "homepro/internal/domain/payout"
)

func completedView(b *domainbooking.Booking) domainpayout.CompletedBooking {
	return domainpayout.CompletedBooking{
		ID:              string(b.ID),
		CapturedAmount:  b.Amount.Amount,
		Currency:        b.Amount.Currency,
		CompletedAt:     b.CompletedAt,
		CheckedOutAt:    b.CheckedOutAt,
		ServiceCategory: b.ServiceCategory,
		City:            b.City,
		CountryCode:     b.CountryCode,
	}
}

func completedViews(bookings []*domainbooking.Booking) []domainpayout.CompletedBooking {
	out := make([]domainpayout.CompletedBooking, 0, len(bookings))
	for _, b := range bookings {
		if b.Status != domainbooking.StatusCompleted {
			continue
		}
		out = append(out, completedView(b))
	}
	return out
}

// fallbackOptions logs each failed lookup and keeps the baseline rate. Warnings
// collects one message per failure when non-nil.
func fallbackOptions(logger *slog.Logger, warnings *[]string) domainpayout.DynamicOptions {
	return domainpayout.DynamicOptions{
		OnLookupError: func(b domainpayout.CompletedBooking, err *domainpayout.LookupError) error {
			logger.Warn("commission lookup failed, using baseline rate",
				"booking_id", b.ID, "category", b.ServiceCategory, "city", b.City, "error", err.Err)
			if warnings != nil {
				*warnings = append(*warnings, err.Error())
			}
			return nil
		},
	}
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}
