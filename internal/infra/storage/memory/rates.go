package memory

import (
	"context"
	"strings"
	"sync"

	domainpayout "homepro/internal/domain/payout"
)

// RateTable resolves commission overrides from a category/city table. An empty
// city acts as a wildcard for the category.
type RateTable struct {
	mu    sync.RWMutex
	rates map[string]float64
}

func NewRateTable() *RateTable {
	return &RateTable{rates: make(map[string]float64)}
}

func (t *RateTable) Set(category, city string, rate float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rates[rateKey(category, city)] = rate
}

func (t *RateTable) CommissionRate(ctx context.Context, key domainpayout.RateKey) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if rate, ok := t.rates[rateKey(key.ServiceCategory, key.City)]; ok {
		return rate, nil
	}
	if rate, ok := t.rates[rateKey(key.ServiceCategory, "")]; ok {
		return rate, nil
	}
	return 0, domainpayout.ErrRateNotFound
}

func rateKey(category, city string) string {
	return strings.ToLower(strings.TrimSpace(category)) + "|" + strings.ToLower(strings.TrimSpace(city))
}

var _ domainpayout.RateLookup = (*RateTable)(nil)
