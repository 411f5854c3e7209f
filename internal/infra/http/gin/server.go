package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"homepro/internal/infra/config"
	"homepro/internal/infra/obs"
)

type BookingHTTP interface {
	Request(c *gin.Context)
	Transition(c *gin.Context)
	CancellationQuote(c *gin.Context)
	Cancel(c *gin.Context)
}

type AvailabilityHTTP interface {
	Day(c *gin.Context)
	Calendar(c *gin.Context)
	Check(c *gin.Context)
	Settings(c *gin.Context)
	UpdateSettings(c *gin.Context)
}

type PayoutHTTP interface {
	Preview(c *gin.Context)
	Run(c *gin.Context)
}

type Handlers struct {
	Booking      BookingHTTP
	Availability AvailabilityHTTP
	Payout       PayoutHTTP
	// CronAuth guards the endpoints invoked by the external scheduler.
	CronAuth gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.Tracing())
	router.Use(obsMW.LoggerMiddleware())
	if len(cfg.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CORSOrigins,
			AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", customerHeader, professionalHeader},
			ExposeHeaders: []string{
				"Content-Length",
				"Content-Type",
				"X-Request-ID",
			},
			MaxAge: 12 * time.Hour,
		}))
	}
	router.Use(Identity())

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Request)
		api.POST("/bookings/:id/transitions", h.Booking.Transition)
		api.GET("/bookings/:id/cancellation", h.Booking.CancellationQuote)
		api.POST("/bookings/:id/cancel", h.Booking.Cancel)
	}
	if h.Availability != nil {
		pro := api.Group("/professionals/:id/availability")
		pro.GET("", h.Availability.Day)
		pro.GET("/calendar", h.Availability.Calendar)
		pro.GET("/check", h.Availability.Check)
		pro.GET("/settings", h.Availability.Settings)
		pro.PUT("/settings", h.Availability.UpdateSettings)
	}
	if h.Payout != nil {
		api.GET("/professionals/:id/payouts/preview", h.Payout.Preview)
		cron := api.Group("/cron")
		if h.CronAuth != nil {
			cron.Use(h.CronAuth)
		}
		cron.POST("/payouts", h.Payout.Run)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
