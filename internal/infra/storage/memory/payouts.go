package memory

import (
	"context"
	"sync"
	"time"

	domainpayout "homepro/internal/domain/payout"
)

type PayoutRepository struct {
	mu       sync.RWMutex
	items    map[domainpayout.PayoutID]domainpayout.Payout
	byPeriod map[string]domainpayout.PayoutID
}

func NewPayoutRepository() *PayoutRepository {
	return &PayoutRepository{
		items:    make(map[domainpayout.PayoutID]domainpayout.Payout),
		byPeriod: make(map[string]domainpayout.PayoutID),
	}
}

// Save rejects a second payout for the same professional and period.
func (r *PayoutRepository) Save(ctx context.Context, p *domainpayout.Payout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := periodKey(p.ProfessionalID, p.PeriodStart)
	if id, ok := r.byPeriod[key]; ok && id != p.ID {
		return domainpayout.ErrPayoutExists
	}
	c := *p
	c.ClearEvents()
	r.items[p.ID] = c
	r.byPeriod[key] = p.ID
	return nil
}

func (r *PayoutRepository) ByPeriod(ctx context.Context, professionalID string, periodStart time.Time) (*domainpayout.Payout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPeriod[periodKey(professionalID, periodStart)]
	if !ok {
		return nil, domainpayout.ErrPayoutNotFound
	}
	p := r.items[id]
	return &p, nil
}

// List returns every stored payout.
func (r *PayoutRepository) List() []domainpayout.Payout {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domainpayout.Payout, 0, len(r.items))
	for _, p := range r.items {
		out = append(out, p)
	}
	return out
}

func periodKey(professionalID string, start time.Time) string {
	return professionalID + "@" + start.UTC().Format(time.RFC3339)
}

var _ domainpayout.Repository = (*PayoutRepository)(nil)
