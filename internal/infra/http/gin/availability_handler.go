package ginserver

import (
	"log/slog"
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"homepro/internal/app/commands"
	"homepro/internal/app/dto"
	availabilityapp "homepro/internal/app/handlers/availability"
	"homepro/internal/app/queries"
)

type AvailabilityHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

func (h AvailabilityHandler) Day(c *gin.Context) {
	minutes, ok := slotMinutes(c)
	if !ok {
		return
	}
	q := availabilityapp.DayAvailabilityQuery{ProfessionalID: c.Param("id"), Date: c.Query("date"), SlotMinutes: minutes}
	result, err := queries.Ask[availabilityapp.DayAvailabilityQuery, dto.DayAvailability](c.Request.Context(), h.Queries, q)
	h.respond(c, result, err)
}

func (h AvailabilityHandler) Calendar(c *gin.Context) {
	minutes, ok := slotMinutes(c)
	if !ok {
		return
	}
	q := availabilityapp.RangeAvailabilityQuery{ProfessionalID: c.Param("id"), From: c.Query("from"), To: c.Query("to"), SlotMinutes: minutes}
	result, err := queries.Ask[availabilityapp.RangeAvailabilityQuery, dto.AvailabilityCalendar](c.Request.Context(), h.Queries, q)
	h.respond(c, result, err)
}

func (h AvailabilityHandler) Check(c *gin.Context) {
	minutes, ok := slotMinutes(c)
	if !ok {
		return
	}
	q := availabilityapp.SlotCheckQuery{ProfessionalID: c.Param("id"), Date: c.Query("date"), Start: c.Query("start"), SlotMinutes: minutes}
	result, err := queries.Ask[availabilityapp.SlotCheckQuery, dto.SlotCheck](c.Request.Context(), h.Queries, q)
	h.respond(c, result, err)
}

func (h AvailabilityHandler) Settings(c *gin.Context) {
	q := availabilityapp.GetSettingsQuery{ProfessionalID: c.Param("id")}
	result, err := queries.Ask[availabilityapp.GetSettingsQuery, dto.AvailabilitySettings](c.Request.Context(), h.Queries, q)
	h.respond(c, result, err)
}

// UpdateSettings lets a professional replace their own weekly template.
func (h AvailabilityHandler) UpdateSettings(c *gin.Context) {
	professionalID, ok := requireRole(c, roleProfessional)
	if !ok {
		return
	}
	var body dto.AvailabilitySettings
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	cmd := availabilityapp.UpdateSettingsCommand{ProfessionalID: c.Param("id"), ActorID: professionalID, Settings: body}
	result, err := commands.Dispatch[availabilityapp.UpdateSettingsCommand, *dto.AvailabilitySettings](c.Request.Context(), h.Commands, cmd)
	h.respond(c, result, err)
}

func (h AvailabilityHandler) respond(c *gin.Context, result any, err error) {
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// slotMinutes parses the optional slot_minutes parameter; zero selects the
// default slot length.
func slotMinutes(c *gin.Context) (int, bool) {
	raw := c.Query("slot_minutes")
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "slot_minutes must be an integer"})
		return 0, false
	}
	return v, true
}

var _ AvailabilityHTTP = AvailabilityHandler{}
