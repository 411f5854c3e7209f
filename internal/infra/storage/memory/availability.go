package memory

import (
	"context"
	"sync"
	"time"

	domainavailability "homepro/internal/domain/availability"
)

type AvailabilityRepository struct {
	mu    sync.RWMutex
	items map[string]domainavailability.Settings
}

func NewAvailabilityRepository() *AvailabilityRepository {
	return &AvailabilityRepository{items: make(map[string]domainavailability.Settings)}
}

func (r *AvailabilityRepository) Settings(ctx context.Context, professionalID string) (*domainavailability.Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.items[professionalID]
	if !ok {
		return nil, domainavailability.ErrSettingsNotFound
	}
	return cloneSettings(s), nil
}

func (r *AvailabilityRepository) Save(ctx context.Context, settings *domainavailability.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.items[settings.ProfessionalID]; ok && current.Version != settings.Version {
		return ErrConcurrentUpdate
	}
	settings.Version++
	r.items[settings.ProfessionalID] = *cloneSettings(*settings)
	return nil
}

func cloneSettings(s domainavailability.Settings) *domainavailability.Settings {
	c := s
	c.ClearEvents()
	c.WeeklyHours = make(map[time.Weekday][]domainavailability.Interval, len(s.WeeklyHours))
	for day, intervals := range s.WeeklyHours {
		c.WeeklyHours[day] = append([]domainavailability.Interval(nil), intervals...)
	}
	c.BlockedDates = make(map[string]struct{}, len(s.BlockedDates))
	for d := range s.BlockedDates {
		c.BlockedDates[d] = struct{}{}
	}
	return &c
}

var _ domainavailability.Repository = (*AvailabilityRepository)(nil)
