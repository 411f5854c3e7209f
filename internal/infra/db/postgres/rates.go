package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"

	domainpayout "homepro/internal/domain/payout"
)

var procedureName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

// RateLookup resolves commission overrides either through a stored function
// taking (category, city, date) and returning a nullable numeric, or directly
// from the commission_rules table.
type RateLookup struct {
	db        *gorm.DB
	procedure string
}

func NewRateLookup(db *gorm.DB, procedure string) (*RateLookup, error) {
	procedure = strings.TrimSpace(procedure)
	if procedure != "" && !procedureName.MatchString(procedure) {
		return nil, fmt.Errorf("postgres: invalid procedure name %q", procedure)
	}
	return &RateLookup{db: db, procedure: procedure}, nil
}

func (l *RateLookup) CommissionRate(ctx context.Context, key domainpayout.RateKey) (float64, error) {
	category := normalize(key.ServiceCategory)
	city := normalize(key.City)
	date := key.EffectiveDate.UTC().Format("2006-01-02")
	if l.procedure != "" {
		return l.viaProcedure(ctx, category, city, date)
	}
	return l.viaRules(ctx, category, city, date)
}

func (l *RateLookup) viaProcedure(ctx context.Context, category, city, date string) (float64, error) {
	var rate sql.NullFloat64
	err := l.db.WithContext(ctx).
		Raw(fmt.Sprintf("SELECT %s(?, ?, ?::date)", l.procedure), category, city, date).
		Scan(&rate).Error
	if err != nil {
		return 0, fmt.Errorf("postgres: %s: %w", l.procedure, err)
	}
	if !rate.Valid {
		return 0, domainpayout.ErrRateNotFound
	}
	return rate.Float64, nil
}

func (l *RateLookup) viaRules(ctx context.Context, category, city, date string) (float64, error) {
	var rates []float64
	err := l.db.WithContext(ctx).
		Model(&CommissionRule{}).
		Where("service_category = ? AND city IN ? AND active", category, []string{city, ""}).
		Where("effective_from <= ? AND (effective_to IS NULL OR effective_to >= ?)", date, date).
		Order("city DESC").
		Order("effective_from DESC").
		Limit(1).
		Pluck("rate", &rates).Error
	if err != nil {
		return 0, fmt.Errorf("postgres: commission rules: %w", err)
	}
	if len(rates) == 0 {
		return 0, domainpayout.ErrRateNotFound
	}
	return rates[0], nil
}

func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

var _ domainpayout.RateLookup = (*RateLookup)(nil)
