package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"homepro/internal/app/dto"
	"homepro/internal/app/uow"
	domainavailability "homepro/internal/domain/availability"
)

var ErrConcurrentUpdate = fmt.Errorf("postgres: %w", uow.ErrConcurrentUpdate)

type AvailabilityRepository struct {
	db *gorm.DB
}

func NewAvailabilityRepository(db *gorm.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

func (r *AvailabilityRepository) Settings(ctx context.Context, professionalID string) (*domainavailability.Settings, error) {
	var row AvailabilitySettings
	err := r.db.WithContext(ctx).Where("professional_id = ?", professionalID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainavailability.ErrSettingsNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

// Save inserts the first version and afterwards updates only when the stored
// version still matches.
func (r *AvailabilityRepository) Save(ctx context.Context, s *domainavailability.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	row, err := fromDomain(s)
	if err != nil {
		return err
	}
	db := r.db.WithContext(ctx)
	if s.Version == 0 {
		row.Version = 1
		if err := db.Create(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrConcurrentUpdate
			}
			return err
		}
		s.Version = 1
		return nil
	}
	res := db.Model(&AvailabilitySettings{}).
		Where("professional_id = ? AND version = ?", s.ProfessionalID, s.Version).
		Updates(map[string]any{
			"weekly_hours":         row.WeeklyHours,
			"buffer_minutes":       row.BufferMinutes,
			"max_bookings_per_day": row.MaxBookingsPerDay,
			"blocked_dates":        row.BlockedDates,
			"time_zone":            row.TimeZone,
			"version":              s.Version + 1,
			"updated_at":           row.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConcurrentUpdate
	}
	s.Version++
	return nil
}

func fromDomain(s *domainavailability.Settings) (AvailabilitySettings, error) {
	wire := dto.MapSettings(s)
	hours, err := json.Marshal(wire.WeeklyHours)
	if err != nil {
		return AvailabilitySettings{}, fmt.Errorf("postgres: encode weekly hours: %w", err)
	}
	blocked, err := json.Marshal(wire.BlockedDates)
	if err != nil {
		return AvailabilitySettings{}, fmt.Errorf("postgres: encode blocked dates: %w", err)
	}
	updated := s.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	return AvailabilitySettings{
		ProfessionalID:    s.ProfessionalID,
		WeeklyHours:       datatypes.JSON(hours),
		BufferMinutes:     wire.BufferMinutes,
		MaxBookingsPerDay: wire.MaxBookingsPerDay,
		BlockedDates:      datatypes.JSON(blocked),
		TimeZone:          wire.Timezone,
		Version:           s.Version,
		UpdatedAt:         updated,
	}, nil
}

func (row AvailabilitySettings) toDomain() (*domainavailability.Settings, error) {
	wire := dto.AvailabilitySettings{
		ProfessionalID:    row.ProfessionalID,
		BufferMinutes:     row.BufferMinutes,
		MaxBookingsPerDay: row.MaxBookingsPerDay,
		Timezone:          row.TimeZone,
	}
	if err := json.Unmarshal(row.WeeklyHours, &wire.WeeklyHours); err != nil {
		return nil, fmt.Errorf("postgres: decode weekly hours: %w", err)
	}
	if err := json.Unmarshal(row.BlockedDates, &wire.BlockedDates); err != nil {
		return nil, fmt.Errorf("postgres: decode blocked dates: %w", err)
	}
	s, err := wire.ToDomain()
	if err != nil {
		return nil, err
	}
	s.Version = row.Version
	s.UpdatedAt = row.UpdatedAt
	return &s, nil
}

var _ domainavailability.Repository = (*AvailabilityRepository)(nil)
