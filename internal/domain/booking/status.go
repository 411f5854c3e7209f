package booking

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownStatus = errors.New("booking: unknown status")

type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusAuthorized     Status = "authorized"
	StatusConfirmed      Status = "confirmed"
	StatusInProgress     Status = "in_progress"
	StatusCompleted      Status = "completed"
	StatusDeclined       Status = "declined"
	StatusCanceled       Status = "canceled"
)

var knownStatuses = []Status{
	StatusPendingPayment,
	StatusAuthorized,
	StatusConfirmed,
	StatusInProgress,
	StatusCompleted,
	StatusDeclined,
	StatusCanceled,
}

// ParseStatus maps a stored or user supplied value onto a Status.
func ParseStatus(raw string) (Status, error) {
	value := Status(strings.ToLower(strings.TrimSpace(raw)))
	for _, s := range knownStatuses {
		if s == value {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusDeclined, StatusCanceled:
		return true
	}
	return false
}

// Active reports whether the booking still occupies its time slot.
func (s Status) Active() bool {
	switch s {
	case StatusPendingPayment, StatusAuthorized, StatusConfirmed, StatusInProgress:
		return true
	}
	return false
}

func (s Status) label() string {
	return strings.ReplaceAll(string(s), "_", " ")
}
