package ginserver

import (
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"homepro/internal/app/commands"
	"homepro/internal/app/dto"
	payoutsapp "homepro/internal/app/handlers/payouts"
	"homepro/internal/app/queries"
)

type PayoutHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

// Preview shows the open period's earnings to the professional they belong to.
func (h PayoutHandler) Preview(c *gin.Context) {
	professionalID, ok := requireRole(c, roleProfessional)
	if !ok {
		return
	}
	q := payoutsapp.PreviewPayoutQuery{ProfessionalID: c.Param("id"), ActorID: professionalID}
	result, err := queries.Ask[payoutsapp.PreviewPayoutQuery, dto.PayoutPreview](c.Request.Context(), h.Queries, q)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Run closes the previous payout period. The scheduler may pass ?at=RFC3339
// to replay a missed run; the Idempotency-Key header makes retries safe.
func (h PayoutHandler) Run(c *gin.Context) {
	cmd := payoutsapp.RunPayoutsCommand{IdempotencyKeyV: c.GetHeader("Idempotency-Key")}
	if raw := c.Query("at"); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "at must be an RFC3339 timestamp"})
			return
		}
		cmd.Now = at
	}
	result, err := commands.Dispatch[payoutsapp.RunPayoutsCommand, *payoutsapp.RunPayoutsResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	if result == nil {
		c.Status(http.StatusNoContent)
		return
	}
	h.logger().Info("payout run finished",
		"period_start", result.PeriodStart,
		"scheduled", len(result.Scheduled),
		"skipped", len(result.Skipped),
		"failed", len(result.Failed),
	)
	c.JSON(http.StatusOK, result)
}

func (h PayoutHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var _ PayoutHTTP = PayoutHandler{}
