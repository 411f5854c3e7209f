package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	domainavailability "homepro/internal/domain/availability"
	domainpayout "homepro/internal/domain/payout"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	schema := []string{
		`CREATE TABLE commission_rules (
			id TEXT PRIMARY KEY,
			service_category TEXT NOT NULL,
			city TEXT NOT NULL DEFAULT '',
			rate REAL NOT NULL,
			effective_from TEXT NOT NULL,
			effective_to TEXT,
			active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE availability_settings (
			professional_id TEXT PRIMARY KEY,
			weekly_hours TEXT NOT NULL,
			buffer_minutes INTEGER NOT NULL DEFAULT 0,
			max_bookings_per_day INTEGER NOT NULL DEFAULT 0,
			blocked_dates TEXT NOT NULL,
			time_zone TEXT NOT NULL DEFAULT 'UTC',
			version INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME
		);`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("schema: %v", err)
		}
	}
	return db
}

func TestRateLookupPrefersCityThenLatest(t *testing.T) {
	db := openTestDB(t)
	rules := []struct {
		id, category, city string
		rate               float64
		from               string
		to                 any
		active             bool
	}{
		{"r1", "plumbing", "", 0.12, "2024-01-01", nil, true},
		{"r2", "plumbing", "bogota", 0.10, "2024-01-01", nil, true},
		{"r3", "plumbing", "bogota", 0.08, "2025-01-01", nil, true},
		{"r4", "plumbing", "bogota", 0.05, "2025-02-01", "2025-02-28", true},
		{"r5", "cleaning", "medellin", 0.20, "2024-01-01", nil, false},
	}
	for _, r := range rules {
		err := db.Exec(`INSERT INTO commission_rules (id, service_category, city, rate, effective_from, effective_to, active) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.id, r.category, r.city, r.rate, r.from, r.to, r.active).Error
		if err != nil {
			t.Fatalf("insert rule %s: %v", r.id, err)
		}
	}
	lookup, err := NewRateLookup(db, "")
	if err != nil {
		t.Fatalf("new lookup: %v", err)
	}

	cases := []struct {
		name    string
		key     domainpayout.RateKey
		want    float64
		wantErr error
	}{
		{name: "city specific latest", key: key("plumbing", "Bogota", "2025-03-10"), want: 0.08},
		{name: "bounded window", key: key("plumbing", "bogota", "2025-02-10"), want: 0.05},
		{name: "older city rule", key: key("plumbing", "bogota", "2024-06-01"), want: 0.10},
		{name: "wildcard city", key: key("plumbing", "cali", "2025-03-10"), want: 0.12},
		{name: "inactive ignored", key: key("cleaning", "medellin", "2025-03-10"), wantErr: domainpayout.ErrRateNotFound},
		{name: "before any rule", key: key("plumbing", "cali", "2023-01-01"), wantErr: domainpayout.ErrRateNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := lookup.CommissionRate(context.Background(), tc.key)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v (rate %v)", tc.wantErr, err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("lookup: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestNewRateLookupRejectsUnsafeProcedure(t *testing.T) {
	if _, err := NewRateLookup(nil, "get_rate(); DROP TABLE x"); err == nil {
		t.Fatalf("expected error for unsafe procedure name")
	}
	if _, err := NewRateLookup(nil, "billing.get_commission_rate"); err != nil {
		t.Fatalf("qualified name rejected: %v", err)
	}
}

func key(category, city, date string) domainpayout.RateKey {
	d, _ := time.Parse(time.DateOnly, date)
	return domainpayout.RateKey{ServiceCategory: category, City: city, EffectiveDate: d}
}

func TestAvailabilityRepositoryRoundTripAndVersioning(t *testing.T) {
	db := openTestDB(t)
	repo := NewAvailabilityRepository(db)
	ctx := context.Background()

	if _, err := repo.Settings(ctx, "pro-1"); !errors.Is(err, domainavailability.ErrSettingsNotFound) {
		t.Fatalf("expected ErrSettingsNotFound, got %v", err)
	}

	bogota, err := time.LoadLocation("America/Bogota")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	settings := &domainavailability.Settings{
		ProfessionalID: "pro-1",
		WeeklyHours: map[time.Weekday][]domainavailability.Interval{
			time.Monday: {{Start: domainavailability.MustParseClock("09:00"), End: domainavailability.MustParseClock("17:00")}},
		},
		Buffer:            15 * time.Minute,
		MaxBookingsPerDay: 4,
		BlockedDates:      map[string]struct{}{"2025-03-17": {}},
		Location:          bogota,
	}
	if err := repo.Save(ctx, settings); err != nil {
		t.Fatalf("save: %v", err)
	}
	if settings.Version != 1 {
		t.Fatalf("expected version 1, got %d", settings.Version)
	}

	loaded, err := repo.Settings(ctx, "pro-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Buffer != 15*time.Minute || loaded.MaxBookingsPerDay != 4 || !loaded.IsBlocked("2025-03-17") {
		t.Fatalf("unexpected settings: %+v", loaded)
	}
	if loaded.Location.String() != "America/Bogota" {
		t.Fatalf("unexpected location %v", loaded.Location)
	}
	if got := domainavailability.GenerateSlots("2025-03-10", loaded, nil, time.Hour); len(got) != 15 {
		t.Fatalf("expected 15 slots, got %v", got)
	}

	loaded.MaxBookingsPerDay = 6
	if err := repo.Save(ctx, loaded); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := repo.Save(ctx, settings); !errors.Is(err, ErrConcurrentUpdate) {
		t.Fatalf("expected ErrConcurrentUpdate, got %v", err)
	}
}
