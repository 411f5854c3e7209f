package ginserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"homepro/internal/app/access"
	bookingapp "homepro/internal/app/handlers/booking"
	"homepro/internal/app/middleware"
	"homepro/internal/app/uow"
	domainavailability "homepro/internal/domain/availability"
	domainbooking "homepro/internal/domain/booking"
	domainpayout "homepro/internal/domain/payout"
	"homepro/internal/infra/validation"
)

type errorMapping struct {
	target error
	status int
}

var errorStatuses = []errorMapping{
	{validation.ErrInvalid, http.StatusBadRequest},
	{domainavailability.ErrInvalidDate, http.StatusBadRequest},
	{domainavailability.ErrInvalidClock, http.StatusBadRequest},
	{domainavailability.ErrInvalidInterval, http.StatusBadRequest},
	{domainavailability.ErrInvalidSettings, http.StatusBadRequest},
	{domainavailability.ErrRangeTooLong, http.StatusBadRequest},
	{domainbooking.ErrInvalidAmount, http.StatusBadRequest},
	{domainbooking.ErrInvalidDuration, http.StatusBadRequest},
	{domainbooking.ErrInvalidScheduledStart, http.StatusBadRequest},
	{bookingapp.ErrUnknownAction, http.StatusBadRequest},

	{bookingapp.ErrBookingNotOwned, http.StatusForbidden},
	{access.ErrNotOwner, http.StatusForbidden},

	{domainbooking.ErrBookingNotFound, http.StatusNotFound},
	{domainavailability.ErrSettingsNotFound, http.StatusNotFound},
	{domainpayout.ErrPayoutNotFound, http.StatusNotFound},

	{domainbooking.ErrInvalidState, http.StatusConflict},
	{domainbooking.ErrCancellationNotAllowed, http.StatusConflict},
	{bookingapp.ErrSlotUnavailable, http.StatusConflict},
	{middleware.ErrIdempotencyKeyReused, http.StatusConflict},
	{uow.ErrConcurrentUpdate, http.StatusConflict},
	{domainpayout.ErrPayoutExists, http.StatusConflict},

	{domainpayout.ErrMixedCurrency, http.StatusUnprocessableEntity},

	{context.DeadlineExceeded, http.StatusGatewayTimeout},
}

func statusFor(err error) int {
	for _, m := range errorStatuses {
		if errors.Is(err, m.target) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

// writeError maps err to a status and body. Internal failures are logged and
// answered without detail.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		if logger == nil {
			logger = slog.Default()
		}
		logger.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "request_id", c.GetString("request_id"), "error", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	body := gin.H{"error": err.Error()}
	var verr *validation.Error
	if errors.As(err, &verr) {
		body["fields"] = verr.Fields
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
