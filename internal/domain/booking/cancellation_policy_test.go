package booking

import (
	"errors"
	"testing"
	"time"

	"homepro/internal/domain/shared/money"
)

var evalNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func TestEvaluateTiers(t *testing.T) {
	policy := DefaultCancellationPolicy()
	cases := []struct {
		name       string
		ahead      time.Duration
		wantCan    bool
		wantRefund int
	}{
		{name: "25h ahead", ahead: 25 * time.Hour, wantCan: true, wantRefund: 100},
		{name: "exactly 24h", ahead: 24 * time.Hour, wantCan: true, wantRefund: 100},
		{name: "just under 24h", ahead: 24*time.Hour - time.Minute, wantCan: true, wantRefund: 50},
		{name: "18h ahead", ahead: 18 * time.Hour, wantCan: true, wantRefund: 50},
		{name: "exactly 12h", ahead: 12 * time.Hour, wantCan: true, wantRefund: 50},
		{name: "just under 12h", ahead: 12*time.Hour - time.Second, wantCan: true, wantRefund: 25},
		{name: "exactly 4h", ahead: 4 * time.Hour, wantCan: true, wantRefund: 25},
		{name: "2h ahead", ahead: 2 * time.Hour, wantCan: true, wantRefund: 0},
		{name: "1 minute ahead", ahead: time.Minute, wantCan: true, wantRefund: 0},
		{name: "starting now", ahead: 0, wantCan: false, wantRefund: 0},
		{name: "in the past", ahead: -3 * time.Hour, wantCan: false, wantRefund: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := policy.Evaluate(evalNow.Add(tc.ahead), StatusConfirmed, evalNow)
			if d.CanCancel != tc.wantCan {
				t.Fatalf("expected canCancel=%v, got %v (%s)", tc.wantCan, d.CanCancel, d.Reason)
			}
			if d.RefundPercentage != tc.wantRefund {
				t.Fatalf("expected refund %d, got %d", tc.wantRefund, d.RefundPercentage)
			}
			if d.Reason == "" {
				t.Fatalf("expected a reason")
			}
		})
	}
}

func TestEvaluateReportsHours(t *testing.T) {
	d := DefaultCancellationPolicy().Evaluate(evalNow.Add(90*time.Minute), StatusAuthorized, evalNow)
	if d.HoursUntilService != 1.5 {
		t.Fatalf("expected 1.5 hours, got %v", d.HoursUntilService)
	}
	past := DefaultCancellationPolicy().Evaluate(evalNow.Add(-2*time.Hour), StatusAuthorized, evalNow)
	if past.HoursUntilService != -2 {
		t.Fatalf("expected -2 hours, got %v", past.HoursUntilService)
	}
	if past.Reason != "cannot cancel past services" {
		t.Fatalf("unexpected reason %q", past.Reason)
	}
}

func TestEvaluateExcludedStatuses(t *testing.T) {
	for _, status := range []Status{StatusCompleted, StatusInProgress} {
		d := DefaultCancellationPolicy().Evaluate(evalNow.Add(72*time.Hour), status, evalNow)
		if d.CanCancel {
			t.Fatalf("status %s must not be cancellable", status)
		}
		if d.RefundPercentage != 0 || d.HoursUntilService != 0 {
			t.Fatalf("status %s: expected zero refund and hours, got %+v", status, d)
		}
	}
}

func TestEvaluateAtAcceptsStrings(t *testing.T) {
	policy := DefaultCancellationPolicy()
	d, err := policy.EvaluateAt("2025-03-11T13:00:00Z", StatusConfirmed, evalNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.RefundPercentage != 100 {
		t.Fatalf("expected 100, got %d", d.RefundPercentage)
	}
	d, err = policy.EvaluateAt("2025-03-11", StatusConfirmed, evalNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.RefundPercentage != 50 || d.HoursUntilService != 12 {
		t.Fatalf("expected 50%% at 12h, got %+v", d)
	}
	if _, err := policy.EvaluateAt("next tuesday", StatusConfirmed, evalNow); !errors.Is(err, ErrInvalidScheduledStart) {
		t.Fatalf("expected ErrInvalidScheduledStart, got %v", err)
	}
}

func TestCustomTiersAreHonored(t *testing.T) {
	policy := CancellationPolicy{Tiers: []RefundTier{{MinHours: 48, Percent: 80}}}
	d := policy.Evaluate(evalNow.Add(50*time.Hour), StatusConfirmed, evalNow)
	if d.RefundPercentage != 80 {
		t.Fatalf("expected 80, got %d", d.RefundPercentage)
	}
	d = policy.Evaluate(evalNow.Add(30*time.Hour), StatusConfirmed, evalNow)
	if !d.CanCancel || d.RefundPercentage != 0 {
		t.Fatalf("expected cancellable with no refund, got %+v", d)
	}
}

func TestDecisionSplit(t *testing.T) {
	total := money.Must(150001, "COP")
	refund, penalty := CancellationDecision{CanCancel: true, RefundPercentage: 25}.Split(total)
	if refund.Amount != 37500 || penalty.Amount != 112501 {
		t.Fatalf("unexpected split %d/%d", refund.Amount, penalty.Amount)
	}
	refund, penalty = CancellationDecision{CanCancel: false}.Split(total)
	if refund.Amount != 0 || penalty.Amount != total.Amount {
		t.Fatalf("blocked cancellation must keep everything, got %d/%d", refund.Amount, penalty.Amount)
	}
}
