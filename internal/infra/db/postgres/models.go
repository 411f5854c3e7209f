package postgres

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CommissionRule overrides the country rate for a category in a city. An empty
// city applies to every city.
type CommissionRule struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ServiceCategory string          `gorm:"type:varchar(64);not null;index:idx_rule_lookup"`
	City            string          `gorm:"type:varchar(128);not null;default:'';index:idx_rule_lookup"`
	Rate            float64         `gorm:"type:numeric(6,4);not null"`
	EffectiveFrom   datatypes.Date  `gorm:"type:date;not null"`
	EffectiveTo     *datatypes.Date `gorm:"type:date"`
	Active          bool            `gorm:"not null;default:true"`
	CreatedAt       time.Time       `gorm:"not null;default:now()"`
	UpdatedAt       time.Time       `gorm:"not null;default:now()"`
}

func (CommissionRule) TableName() string { return "commission_rules" }

// AvailabilitySettings stores the weekly template as jsonb.
type AvailabilitySettings struct {
	ProfessionalID    string         `gorm:"type:varchar(64);primaryKey"`
	WeeklyHours       datatypes.JSON `gorm:"type:jsonb;not null"`
	BufferMinutes     int            `gorm:"not null;default:0"`
	MaxBookingsPerDay int            `gorm:"not null;default:0"`
	BlockedDates      datatypes.JSON `gorm:"type:jsonb;not null"`
	TimeZone          string         `gorm:"type:varchar(64);not null;default:'UTC'"`
	Version           int64          `gorm:"not null;default:0"`
	UpdatedAt         time.Time      `gorm:"not null;default:now()"`
}

func (AvailabilitySettings) TableName() string { return "availability_settings" }
