package access_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"homepro/internal/app/access"
	"homepro/internal/app/commands"
	availabilityapp "homepro/internal/app/handlers/availability"
	bookingapp "homepro/internal/app/handlers/booking"
	payoutsapp "homepro/internal/app/handlers/payouts"
	"homepro/internal/app/middleware"
	domainbooking "homepro/internal/domain/booking"
	"homepro/internal/domain/shared/money"
	"homepro/internal/infra/storage/memory"
)

func seeded(t *testing.T) memory.Factory {
	t.Helper()
	bookings := memory.NewBookingRepository()
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:              "bk-1",
		ProfessionalID:  "pro-1",
		CustomerID:      "cust-1",
		ServiceCategory: "cleaning",
		City:            "bogota",
		CountryCode:     "CO",
		ScheduledStart:  time.Date(2030, 6, 3, 10, 0, 0, 0, time.UTC),
		Duration:        time.Hour,
		Amount:          money.Money{Amount: 100000, Currency: "COP"},
		CreatedAt:       time.Date(2030, 6, 1, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("new booking: %v", err)
	}
	if err := bookings.Save(context.Background(), b); err != nil {
		t.Fatalf("save booking: %v", err)
	}
	return memory.Factory{
		BookingRepo:      bookings,
		AvailabilityRepo: memory.NewAvailabilityRepository(),
		PayoutRepo:       memory.NewPayoutRepository(),
	}
}

func TestOwnershipAuthorize(t *testing.T) {
	a := access.Ownership{UoWFactory: seeded(t)}
	cases := []struct {
		name    string
		message any
		want    error
	}{
		{"customer cancels own booking", bookingapp.CancelBookingCommand{BookingID: "bk-1", CustomerID: "cust-1"}, nil},
		{"customer cancels another booking", bookingapp.CancelBookingCommand{BookingID: "bk-1", CustomerID: "cust-2"}, bookingapp.ErrBookingNotOwned},
		{"cancel of unknown booking", bookingapp.CancelBookingCommand{BookingID: "missing", CustomerID: "cust-1"}, domainbooking.ErrBookingNotFound},
		{"assigned professional transitions", bookingapp.TransitionBookingCommand{BookingID: "bk-1", ProfessionalID: "pro-1", Action: bookingapp.ActionAuthorize}, nil},
		{"other professional transitions", bookingapp.TransitionBookingCommand{BookingID: "bk-1", ProfessionalID: "pro-2", Action: bookingapp.ActionAuthorize}, bookingapp.ErrBookingNotOwned},
		{"professional edits own settings", availabilityapp.UpdateSettingsCommand{ProfessionalID: "pro-1", ActorID: "pro-1"}, nil},
		{"professional edits other settings", availabilityapp.UpdateSettingsCommand{ProfessionalID: "pro-1", ActorID: "pro-2"}, access.ErrNotOwner},
		{"in-process settings load", availabilityapp.UpdateSettingsCommand{ProfessionalID: "pro-1"}, nil},
		{"professional previews own payout", payoutsapp.PreviewPayoutQuery{ProfessionalID: "pro-1", ActorID: "pro-1"}, nil},
		{"professional previews other payout", payoutsapp.PreviewPayoutQuery{ProfessionalID: "pro-1", ActorID: "pro-2"}, access.ErrNotOwner},
		{"unguarded message", payoutsapp.RunPayoutsCommand{}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := a.Authorize(context.Background(), tc.message)
			if tc.want == nil && err != nil {
				t.Fatalf("expected access, got %v", err)
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestAuthorizationStopsBeforeHandler(t *testing.T) {
	factory := seeded(t)
	calls := 0
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, bookingapp.CancelBookingCommand{}.Key(), commands.HandlerFunc[bookingapp.CancelBookingCommand, any](
		func(ctx context.Context, cmd bookingapp.CancelBookingCommand) (any, error) {
			calls++
			return nil, nil
		}))
	chain := middleware.ChainCommands(bus, middleware.Authorization(access.Ownership{UoWFactory: factory}))

	if _, err := chain.Dispatch(context.Background(), bookingapp.CancelBookingCommand{BookingID: "bk-1", CustomerID: "cust-2"}); !errors.Is(err, bookingapp.ErrBookingNotOwned) {
		t.Fatalf("expected ErrBookingNotOwned, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("handler ran for a foreign booking")
	}
	if _, err := chain.Dispatch(context.Background(), bookingapp.CancelBookingCommand{BookingID: "bk-1", CustomerID: "cust-1"}); err != nil || calls != 1 {
		t.Fatalf("owner must reach the handler, calls=%d err=%v", calls, err)
	}
}
