package schedule

import (
	"context"
	"testing"
	"time"

	"homepro/internal/app/commands"
	payoutapp "homepro/internal/app/handlers/payouts"
	domainpayout "homepro/internal/domain/payout"
)

type recordingBus struct {
	got    []payoutapp.RunPayoutsCommand
	onCall func()
}

func (b *recordingBus) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	b.got = append(b.got, cmd.(payoutapp.RunPayoutsCommand))
	if b.onCall != nil {
		b.onCall()
	}
	return &payoutapp.RunPayoutsResult{}, nil
}

func TestNextRun(t *testing.T) {
	r := &PayoutRunner{Schedule: domainpayout.DefaultSchedule(time.UTC), Delay: 10 * time.Minute}
	cases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{name: "monday evening", now: time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC), want: time.Date(2025, 3, 11, 0, 10, 0, 0, time.UTC)},
		{name: "inside delay", now: time.Date(2025, 3, 11, 0, 5, 0, 0, time.UTC), want: time.Date(2025, 3, 11, 0, 10, 0, 0, time.UTC)},
		{name: "after tuesday run", now: time.Date(2025, 3, 11, 0, 15, 0, 0, time.UTC), want: time.Date(2025, 3, 14, 0, 10, 0, 0, time.UTC)},
		{name: "saturday", now: time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC), want: time.Date(2025, 3, 18, 0, 10, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		if got := r.Next(tc.now); !got.Equal(tc.want) {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestIdempotencyKeyNamesClosedPeriod(t *testing.T) {
	r := &PayoutRunner{Schedule: domainpayout.DefaultSchedule(time.UTC)}
	tuesday := time.Date(2025, 3, 11, 0, 10, 0, 0, time.UTC)
	if got := r.IdempotencyKey(tuesday); got != "scheduled-payouts:2025-03-07T00:00:00Z" {
		t.Fatalf("unexpected key %q", got)
	}
	if r.IdempotencyKey(tuesday) != r.IdempotencyKey(tuesday.Add(time.Hour)) {
		t.Fatalf("runs inside one period must share a key")
	}
}

func TestRunDispatchesAtNextPayoutDay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := &recordingBus{onCall: cancel}
	start := time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC)
	var waited time.Duration
	r := &PayoutRunner{
		Bus:      bus,
		Schedule: domainpayout.DefaultSchedule(time.UTC),
		now:      func() time.Time { return start },
		after: func(d time.Duration) <-chan time.Time {
			waited = d
			ch := make(chan time.Time, 1)
			ch <- start.Add(d)
			return ch
		},
	}

	if err := r.Run(ctx); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if waited != 4*time.Hour {
		t.Fatalf("expected to wait until midnight, waited %s", waited)
	}
	if len(bus.got) != 1 || !bus.got[0].Now.Equal(time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)) || bus.got[0].IdempotencyKeyV == "" {
		t.Fatalf("unexpected dispatch %+v", bus.got)
	}
}

func TestRunRequiresBus(t *testing.T) {
	if err := (&PayoutRunner{}).Run(context.Background()); err != ErrRunnerNotConfigured {
		t.Fatalf("expected ErrRunnerNotConfigured, got %v", err)
	}
}
