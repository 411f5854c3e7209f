package booking

import "errors"

var (
	ErrBookingNotOwned = errors.New("booking: not owned by caller")
	ErrSlotUnavailable = errors.New("booking: requested slot is not available")
	ErrUnknownAction   = errors.New("booking: unknown action")
)
