package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainbooking "homepro/internal/domain/booking"
)

// BookingRepository keeps copies of bookings so callers only observe saved state.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return cloneBooking(b), nil
}

func (r *BookingRepository) Save(ctx context.Context, booking *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.items[booking.ID]; ok && current.Version != booking.Version {
		return ErrConcurrentUpdate
	}
	booking.Version++
	r.items[booking.ID] = *cloneBooking(*booking)
	return nil
}

func (r *BookingRepository) ListCompleted(ctx context.Context, filter domainbooking.CompletedFilter) ([]*domainbooking.Booking, error) {
	return r.list(func(b domainbooking.Booking) bool {
		if b.Status != domainbooking.StatusCompleted {
			return false
		}
		if filter.ProfessionalID != "" && b.ProfessionalID != filter.ProfessionalID {
			return false
		}
		at := completionTime(b)
		if at.IsZero() {
			return false
		}
		if !filter.From.IsZero() && at.Before(filter.From) {
			return false
		}
		return filter.To.IsZero() || at.Before(filter.To)
	}), nil
}

func (r *BookingRepository) ListByProfessionalBetween(ctx context.Context, professionalID string, from, to time.Time) ([]*domainbooking.Booking, error) {
	return r.list(func(b domainbooking.Booking) bool {
		return b.ProfessionalID == professionalID && !b.ScheduledStart.Before(from) && b.ScheduledStart.Before(to)
	}), nil
}

func (r *BookingRepository) list(keep func(domainbooking.Booking) bool) []*domainbooking.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if keep(b) {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduledStart.Equal(out[j].ScheduledStart) {
			return out[i].ID < out[j].ID
		}
		return out[i].ScheduledStart.Before(out[j].ScheduledStart)
	})
	return out
}

func completionTime(b domainbooking.Booking) time.Time {
	if b.CompletedAt != nil {
		return *b.CompletedAt
	}
	if b.CheckedOutAt != nil {
		return *b.CheckedOutAt
	}
	return time.Time{}
}

func cloneBooking(b domainbooking.Booking) *domainbooking.Booking {
	c := b
	c.ClearEvents()
	c.CompletedAt = cloneTime(b.CompletedAt)
	c.CheckedOutAt = cloneTime(b.CheckedOutAt)
	c.CancelledAt = cloneTime(b.CancelledAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
