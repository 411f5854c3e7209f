package availability

import "time"

type SettingsUpdated struct {
	ProfessionalID string
	BlockedDates   int
	At             time.Time
}

func (e SettingsUpdated) EventName() string     { return "availability.settings_updated" }
func (e SettingsUpdated) AggregateID() string   { return e.ProfessionalID }
func (e SettingsUpdated) OccurredAt() time.Time { return e.At }
