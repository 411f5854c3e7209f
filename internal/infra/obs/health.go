package obs

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

const defaultCheckTimeout = 2 * time.Second

// Check reports whether one dependency can serve traffic.
type Check func(ctx context.Context) error

// HealthHandlers serves /livez and /readyz. Readiness fails when any named
// check fails or outlives Timeout.
type HealthHandlers struct {
	Checks  map[string]Check
	Timeout time.Duration
}

func (h HealthHandlers) Livez(c *gin.Context) {
	c.Status(http.StatusOK)
}

func (h HealthHandlers) Readyz(c *gin.Context) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = defaultCheckTimeout
	}
	names := make([]string, 0, len(h.Checks))
	for name := range h.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	failed := gin.H{}
	for _, name := range names {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		err := h.Checks[name](ctx)
		cancel()
		if err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "checks": failed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
