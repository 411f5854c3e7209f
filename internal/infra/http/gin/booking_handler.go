package ginserver

import (
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"homepro/internal/app/commands"
	"homepro/internal/app/dto"
	bookingapp "homepro/internal/app/handlers/booking"
	"homepro/internal/app/queries"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type requestBookingRequest struct {
	ProfessionalID  string    `json:"professional_id"`
	ServiceCategory string    `json:"service_category"`
	City            string    `json:"city"`
	CountryCode     string    `json:"country_code"`
	ScheduledStart  time.Time `json:"scheduled_start"`
	DurationMinutes int       `json:"duration_minutes"`
	AmountMinor     int64     `json:"amount_minor"`
	Currency        string    `json:"currency"`
}

func (h BookingHandler) Request(c *gin.Context) {
	customerID, ok := requireRole(c, roleCustomer)
	if !ok {
		return
	}
	var req requestBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := bookingapp.RequestBookingCommand{
		ProfessionalID:  req.ProfessionalID,
		CustomerID:      customerID,
		ServiceCategory: req.ServiceCategory,
		City:            req.City,
		CountryCode:     req.CountryCode,
		ScheduledStart:  req.ScheduledStart,
		DurationMinutes: req.DurationMinutes,
		AmountMinor:     req.AmountMinor,
		Currency:        req.Currency,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.RequestBookingCommand, *bookingapp.RequestBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type transitionRequest struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

func (h BookingHandler) Transition(c *gin.Context) {
	professionalID, ok := requireRole(c, roleProfessional)
	if !ok {
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := bookingapp.TransitionBookingCommand{
		BookingID:      c.Param("id"),
		ProfessionalID: professionalID,
		Action:         req.Action,
		Reason:         req.Reason,
	}
	result, err := commands.Dispatch[bookingapp.TransitionBookingCommand, *bookingapp.TransitionBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) CancellationQuote(c *gin.Context) {
	q := bookingapp.CancellationQuoteQuery{BookingID: c.Param("id")}
	result, err := queries.Ask[bookingapp.CancellationQuoteQuery, dto.CancellationQuote](c.Request.Context(), h.Queries, q)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h BookingHandler) Cancel(c *gin.Context) {
	customerID, ok := requireRole(c, roleCustomer)
	if !ok {
		return
	}
	var req cancelRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	cmd := bookingapp.CancelBookingCommand{
		BookingID:       c.Param("id"),
		CustomerID:      customerID,
		Reason:          req.Reason,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.CancelBookingCommand, *bookingapp.CancelBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ BookingHTTP = BookingHandler{}
