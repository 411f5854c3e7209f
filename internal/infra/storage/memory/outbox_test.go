package memory_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"homepro/internal/app/commands"
	"homepro/internal/app/middleware"
	appoutbox "homepro/internal/app/outbox"
	"homepro/internal/app/uow"
	"homepro/internal/infra/storage/memory"
)

type stagedCommand struct {
	key string
}

func (c stagedCommand) Key() string { return c.key }

func newOutboxWorld() (*memory.Outbox, memory.Factory) {
	box := memory.NewOutbox()
	return box, memory.Factory{
		BookingRepo:      memory.NewBookingRepository(),
		AvailabilityRepo: memory.NewAvailabilityRepository(),
		PayoutRepo:       memory.NewPayoutRepository(),
		Outbox:           box,
	}
}

// staging registers a handler that adds one event, waits for release and then
// returns err.
func staging(bus *commands.InMemoryBus, box *memory.Outbox, key, event string, added chan<- struct{}, release <-chan struct{}, err error) {
	commands.RegisterHandler(bus, key, commands.HandlerFunc[stagedCommand, any](func(ctx context.Context, cmd stagedCommand) (any, error) {
		if addErr := box.Add(ctx, appoutbox.EventRecord{ID: key, Name: event, OccurredAt: time.Now()}); addErr != nil {
			return nil, addErr
		}
		if added != nil {
			close(added)
		}
		if release != nil {
			<-release
		}
		return nil, err
	}))
}

func TestFailedCommandKeepsConcurrentEvents(t *testing.T) {
	box, factory := newOutboxWorld()
	bus := commands.NewInMemoryBus()
	added, release := make(chan struct{}), make(chan struct{})
	errDeclined := errors.New("declined")
	staging(bus, box, "cancel", "booking.cancelled", added, release, nil)
	staging(bus, box, "request", "booking.requested", nil, nil, errDeclined)
	chain := middleware.ChainCommands(bus, middleware.Transaction(factory, nil), middleware.OutboxFlush(box))

	done := make(chan error, 1)
	go func() {
		_, err := chain.Dispatch(context.Background(), stagedCommand{key: "cancel"})
		done <- err
	}()
	<-added
	if _, err := chain.Dispatch(context.Background(), stagedCommand{key: "request"}); !errors.Is(err, errDeclined) {
		t.Fatalf("expected declined, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := box.Ready(); !reflect.DeepEqual(got, []string{"booking.cancelled"}) {
		t.Fatalf("expected only the cancellation event, got %v", got)
	}
	if box.Staged() != 0 {
		t.Fatalf("expected nothing left staged, got %d", box.Staged())
	}
}

func TestSuccessfulCommandLeavesPendingEventsStaged(t *testing.T) {
	box, factory := newOutboxWorld()
	bus := commands.NewInMemoryBus()
	added, release := make(chan struct{}), make(chan struct{})
	errConflict := errors.New("conflict")
	staging(bus, box, "request", "booking.requested", added, release, errConflict)
	staging(bus, box, "settings", "availability.settings_updated", nil, nil, nil)
	chain := middleware.ChainCommands(bus, middleware.Transaction(factory, nil), middleware.OutboxFlush(box))

	done := make(chan error, 1)
	go func() {
		_, err := chain.Dispatch(context.Background(), stagedCommand{key: "request"})
		done <- err
	}()
	<-added
	if _, err := chain.Dispatch(context.Background(), stagedCommand{key: "settings"}); err != nil {
		t.Fatalf("settings: %v", err)
	}
	if got := box.Ready(); !reflect.DeepEqual(got, []string{"availability.settings_updated"}) {
		t.Fatalf("flush released another command's events: %v", got)
	}
	if box.Staged() != 1 {
		t.Fatalf("expected the pending request to stay staged, got %d", box.Staged())
	}
	close(release)
	if err := <-done; !errors.Is(err, errConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if got := box.Ready(); !reflect.DeepEqual(got, []string{"availability.settings_updated"}) {
		t.Fatalf("failed command leaked events: %v", got)
	}
	if box.Staged() != 0 {
		t.Fatalf("expected rollback to drop staged events, got %d", box.Staged())
	}
}

func TestUnitCommitReleasesStagedEvents(t *testing.T) {
	box, factory := newOutboxWorld()
	unit, err := factory.Begin(context.Background(), uow.TxOptions{})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	ctx := unit.(*memory.Unit).InjectContext(context.Background())
	if err := box.Add(ctx, appoutbox.EventRecord{ID: "1", Name: "payout.scheduled"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := box.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if len(box.Ready()) != 0 {
		t.Fatalf("flush outside the unit must not release its events: %v", box.Ready())
	}
	if err := unit.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if got := box.Ready(); !reflect.DeepEqual(got, []string{"payout.scheduled"}) {
		t.Fatalf("expected commit to release the event, got %v", got)
	}
}
