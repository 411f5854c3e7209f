package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homepro/internal/app/bootstrap"
	"homepro/internal/app/schedule"
	domainpayout "homepro/internal/domain/payout"
	"homepro/internal/infra/config"
	ginserver "homepro/internal/infra/http/gin"
	"homepro/internal/infra/obs"
	"homepro/internal/infra/security"
	"homepro/internal/infra/validation"
)

func main() {
	genSecret := flag.Bool("gen-cron-secret", false, "print a new cron secret and its bcrypt hash, then exit")
	flag.Parse()
	if *genSecret {
		if err := printCronSecret(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := obs.NewLogger(getenv("APP_ENV", "dev"))
	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger = obs.NewLogger(cfg.Env)

	tracer, shutdownTracer, err := obs.NewTracer(ctx, cfg.OTLPEndpoint, cfg.Env)
	if err != nil {
		logger.Error("tracer init failed", "error", err)
		os.Exit(1)
	}

	infra, err := buildInfrastructure(ctx, cfg, logger)
	if err != nil {
		logger.Error("infrastructure init failed", "error", err)
		os.Exit(1)
	}
	defer infra.close(logger)

	payoutCfg, _ := cfg.PayoutConfig()
	payoutLoc, _ := cfg.PayoutLocation()
	policy, _ := cfg.CancellationPolicy()

	payoutSchedule := domainpayout.DefaultSchedule(payoutLoc)
	app, err := bootstrap.Build(bootstrap.Deps{
		UoWFactory:    infra.uow,
		Outbox:        infra.outbox,
		Idempotency:   infra.idempotency,
		Validator:     validation.New(),
		Rates:         infra.rates,
		Refunds:       infra.refunds,
		Statements:    infra.statements,
		Payout:        payoutCfg,
		Schedule:      payoutSchedule,
		Cancellation:  policy,
		StrictLookups: cfg.StrictRateLookups,
		Logger:        logger,
		Tracer:        tracer,
	})
	if err != nil {
		logger.Error("application init failed", "error", err)
		os.Exit(1)
	}
	logger.Info("application ready", "commands", app.CommandKeys, "queries", app.QueryKeys, "storage", cfg.StorageMode, "broker", cfg.Broker)

	if path := getenv("AVAILABILITY_FIXTURES", ""); path != "" {
		if err := loadAvailabilityFixtures(ctx, app.Commands, path, logger); err != nil {
			logger.Warn("availability fixtures load failed", "error", err, "path", path)
		}
	}

	infra.startBackground(ctx, cfg, logger)
	if cfg.PayoutAutorun {
		runner := &schedule.PayoutRunner{
			Bus:      app.Commands,
			Schedule: payoutSchedule,
			Delay:    cfg.PayoutAutorunDelay,
			Logger:   logger.With("component", "payout-runner"),
		}
		infra.goRun(logger, "payout runner", func() error { return runner.Run(ctx) })
	}

	handlers := ginserver.Handlers{
		Booking:      ginserver.BookingHandler{Commands: app.Commands, Queries: app.Queries, Logger: logger},
		Availability: ginserver.AvailabilityHandler{Commands: app.Commands, Queries: app.Queries, Logger: logger},
		Payout:       ginserver.PayoutHandler{Commands: app.Commands, Queries: app.Queries, Logger: logger},
		CronAuth:     ginserver.CronAuth(security.SecretVerifier{Hash: cfg.CronSecretHash}, logger),
	}
	if cfg.CronSecretHash == "" {
		logger.Warn("CRON_SECRET_HASH not set, cron endpoints reject every request")
	}
	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger, Tracer: tracer}, obs.HealthHandlers{Checks: infra.checks}, handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
		if err := shutdownTracer(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	infra.wait()
	logger.Info("HTTP server stopped")
}

// printCronSecret writes a fresh secret for the scheduler and the hash to put
// in CRON_SECRET_HASH.
func printCronSecret() error {
	secret, hash, err := security.BcryptHasher{}.NewCronSecret()
	if err != nil {
		return err
	}
	fmt.Printf("secret: %s\nCRON_SECRET_HASH=%s\n", secret, hash)
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
