package schedule

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"homepro/internal/app/commands"
	payoutapp "homepro/internal/app/handlers/payouts"
	domainpayout "homepro/internal/domain/payout"
)

var ErrRunnerNotConfigured = errors.New("schedule: payout runner requires a command bus")

// PayoutRunner dispatches payouts.run shortly after each payout day begins.
// Every run carries an idempotency key derived from the closed period, so
// replicas sharing an idempotency store settle a period once.
type PayoutRunner struct {
	Bus      commands.Bus
	Schedule domainpayout.Schedule
	// Delay is waited past midnight so bookings completed just before it are stored.
	Delay  time.Duration
	Logger *slog.Logger

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// Next returns the first run instant after now.
func (r *PayoutRunner) Next(now time.Time) time.Time {
	return r.Schedule.PeriodAt(now.Add(-r.Delay)).End.Add(r.Delay)
}

// IdempotencyKey names the run that settles the period closed at at.
func (r *PayoutRunner) IdempotencyKey(at time.Time) string {
	closed := r.Schedule.Previous(r.Schedule.PeriodAt(at))
	return "scheduled-payouts:" + closed.Start.UTC().Format(time.RFC3339)
}

func (r *PayoutRunner) Run(ctx context.Context) error {
	if r.Bus == nil {
		return ErrRunnerNotConfigured
	}
	logger := r.logger()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		next := r.Next(r.clock())
		logger.Info("next payout run scheduled", "at", next)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.wait(next.Sub(r.clock())):
		}
		if err := r.RunOnce(ctx, next); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("scheduled payout run failed", "at", next, "error", err)
		}
	}
}

// RunOnce dispatches a payout run as of at.
func (r *PayoutRunner) RunOnce(ctx context.Context, at time.Time) error {
	cmd := payoutapp.RunPayoutsCommand{Now: at, IdempotencyKeyV: r.IdempotencyKey(at)}
	res, err := commands.Dispatch[payoutapp.RunPayoutsCommand, *payoutapp.RunPayoutsResult](ctx, r.Bus, cmd)
	if err != nil || res == nil {
		return err
	}
	r.logger().Info("scheduled payout run finished",
		"period_start", res.PeriodStart, "scheduled", len(res.Scheduled), "skipped", len(res.Skipped), "failed", len(res.Failed))
	return nil
}

func (r *PayoutRunner) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

func (r *PayoutRunner) wait(d time.Duration) <-chan time.Time {
	if r.after != nil {
		return r.after(d)
	}
	return time.After(d)
}

func (r *PayoutRunner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
