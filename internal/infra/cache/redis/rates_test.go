package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"

	domainpayout "homepro/internal/domain/payout"
)

type stubLookup struct {
	rates map[string]float64
	calls int
}

func (s *stubLookup) CommissionRate(_ context.Context, key domainpayout.RateKey) (float64, error) {
	s.calls++
	rate, ok := s.rates[key.ServiceCategory]
	if !ok {
		return 0, domainpayout.ErrRateNotFound
	}
	return rate, nil
}

func TestRateCacheFallsThroughWhenRedisIsDown(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	next := &stubLookup{rates: map[string]float64{"plumbing": 0.08}}
	cache := NewRateCache(client, next, time.Minute, nil)
	ctx := context.Background()

	rate, err := cache.CommissionRate(ctx, domainpayout.RateKey{ServiceCategory: "plumbing", City: "bogota"})
	if err != nil || rate != 0.08 {
		t.Fatalf("expected 0.08 from the wrapped lookup, got %v %v", rate, err)
	}
	if _, err := cache.CommissionRate(ctx, domainpayout.RateKey{ServiceCategory: "cleaning"}); !errors.Is(err, domainpayout.ErrRateNotFound) {
		t.Fatalf("expected ErrRateNotFound, got %v", err)
	}
	if next.calls != 2 {
		t.Fatalf("expected 2 lookups, got %d", next.calls)
	}
}

func TestCacheKeyNormalizesParts(t *testing.T) {
	key := domainpayout.RateKey{
		ServiceCategory: " Plumbing ",
		City:            "Bogota",
		EffectiveDate:   time.Date(2025, 3, 10, 23, 30, 0, 0, time.FixedZone("COT", -5*3600)),
	}
	if got := cacheKey(key); got != "commission_rate:plumbing:bogota:2025-03-11" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestInvalidationPattern(t *testing.T) {
	cases := []struct {
		category, city, want string
	}{
		{"plumbing", "Bogota", "commission_rate:plumbing:bogota:*"},
		{"plumbing", "", "commission_rate:plumbing:*"},
		{"Cleaning", "  ", "commission_rate:cleaning:*"},
	}
	for _, tc := range cases {
		if got := invalidationPattern(tc.category, tc.city); got != tc.want {
			t.Fatalf("%s/%s: got %q want %q", tc.category, tc.city, got, tc.want)
		}
	}
}
