package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"
)

// Callers are authenticated by the gateway in front of this service, which
// forwards their identity in these headers.
const (
	customerHeader     = "X-Customer-ID"
	professionalHeader = "X-Professional-ID"

	principalContextKey = "homepro.principal"
)

const (
	roleCustomer     = "customer"
	roleProfessional = "professional"
)

type principal struct {
	CustomerID     string
	ProfessionalID string
}

func (p principal) idFor(role string) string {
	switch role {
	case roleCustomer:
		return p.CustomerID
	case roleProfessional:
		return p.ProfessionalID
	default:
		return ""
	}
}

// Identity stores the forwarded caller identity on the gin context.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := principal{
			CustomerID:     strings.TrimSpace(c.GetHeader(customerHeader)),
			ProfessionalID: strings.TrimSpace(c.GetHeader(professionalHeader)),
		}
		if p.CustomerID != "" || p.ProfessionalID != "" {
			c.Set(principalContextKey, p)
		}
		c.Next()
	}
}

func currentPrincipal(c *gin.Context) (principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return principal{}, false
	}
	p, ok := val.(principal)
	return p, ok
}

// requireRole returns the caller id for role or writes 401.
func requireRole(c *gin.Context, role string) (string, bool) {
	p, _ := currentPrincipal(c)
	id := p.idFor(role)
	if id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": role + " identity required"})
		return "", false
	}
	return id, true
}

// SecretVerifier checks a bearer secret.
type SecretVerifier interface {
	Verify(secret string) error
}

// CronAuth admits requests carrying the scheduler's bearer secret.
func CronAuth(v SecretVerifier, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c.GetHeader("Authorization"))
		if token == "" || v == nil || v.Verify(token) != nil {
			if logger != nil {
				logger.Warn("cron request rejected", "path", c.FullPath(), "request_id", c.GetString("request_id"))
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid cron secret"})
			return
		}
		c.Next()
	}
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
