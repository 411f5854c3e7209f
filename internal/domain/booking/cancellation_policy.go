package booking

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"homepro/internal/domain/shared/money"
)

var ErrInvalidScheduledStart = errors.New("booking: invalid scheduled start")

// RefundTier grants Percent when at least MinHours remain before the service.
type RefundTier struct {
	MinHours float64
	Percent  int
}

// CancellationPolicy holds refund tiers ordered from the longest notice to the shortest.
type CancellationPolicy struct {
	Tiers []RefundTier
}

func DefaultCancellationPolicy() CancellationPolicy {
	return CancellationPolicy{Tiers: []RefundTier{
		{MinHours: 24, Percent: 100},
		{MinHours: 12, Percent: 50},
		{MinHours: 4, Percent: 25},
	}}
}

type CancellationDecision struct {
	CanCancel         bool
	RefundPercentage  int
	Reason            string
	HoursUntilService float64
}

// Evaluate applies the default policy against the current time.
func Evaluate(scheduledStart time.Time, status Status) CancellationDecision {
	return DefaultCancellationPolicy().Evaluate(scheduledStart, status, time.Now())
}

// Evaluate decides whether a booking with the given start and status may be
// cancelled at now and which share of the captured amount is refunded.
func (p CancellationPolicy) Evaluate(scheduledStart time.Time, status Status, now time.Time) CancellationDecision {
	if status == StatusCompleted || status == StatusInProgress {
		return CancellationDecision{
			CanCancel:        false,
			RefundPercentage: 0,
			Reason:           fmt.Sprintf("cannot cancel a booking that is %s", status.label()),
		}
	}

	hours := scheduledStart.Sub(now).Hours()
	if hours <= 0 {
		return CancellationDecision{
			CanCancel:         false,
			RefundPercentage:  0,
			Reason:            "cannot cancel past services",
			HoursUntilService: hours,
		}
	}

	for _, tier := range p.Tiers {
		if hours >= tier.MinHours {
			return CancellationDecision{
				CanCancel:         true,
				RefundPercentage:  clampPercent(tier.Percent),
				Reason:            tierReason(tier),
				HoursUntilService: hours,
			}
		}
	}
	return CancellationDecision{
		CanCancel:         true,
		RefundPercentage:  0,
		Reason:            p.shortNoticeReason(),
		HoursUntilService: hours,
	}
}

// EvaluateAt is Evaluate for ISO-8601 timestamps or plain YYYY-MM-DD dates.
func (p CancellationPolicy) EvaluateAt(scheduledStart string, status Status, now time.Time) (CancellationDecision, error) {
	start, err := ParseScheduledStart(scheduledStart)
	if err != nil {
		return CancellationDecision{}, err
	}
	return p.Evaluate(start, status, now), nil
}

// ParseScheduledStart accepts RFC3339 timestamps and date-only values (midnight UTC).
func ParseScheduledStart(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, ErrInvalidScheduledStart
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidScheduledStart, raw)
}

// Split divides total into the refunded share and the retained penalty.
func (d CancellationDecision) Split(total money.Money) (refund money.Money, penalty money.Money) {
	if !d.CanCancel {
		return money.Zero(total.Currency), total
	}
	refund = total.Percent(d.RefundPercentage)
	penalty = money.Money{Amount: total.Amount - refund.Amount, Currency: total.Currency}
	return refund, penalty
}

func (p CancellationPolicy) shortNoticeReason() string {
	if len(p.Tiers) == 0 {
		return "cancellations are not refunded"
	}
	last := p.Tiers[len(p.Tiers)-1]
	return fmt.Sprintf("less than %s notice, no refund", formatHours(last.MinHours))
}

func tierReason(tier RefundTier) string {
	return fmt.Sprintf("%d%% refund for cancellations at least %s before the service", clampPercent(tier.Percent), formatHours(tier.MinHours))
}

func formatHours(h float64) string {
	if h == float64(int64(h)) {
		return fmt.Sprintf("%d hours", int64(h))
	}
	return fmt.Sprintf("%.1f hours", h)
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
