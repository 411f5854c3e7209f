package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	goredis "github.com/go-redis/redis/v8"

	domainpayout "homepro/internal/domain/payout"
)

const (
	DefaultRateTTL = 10 * time.Minute
	notFoundMarker = "none"
	keyPrefix      = "commission_rate"
)

// RateCache memoizes a RateLookup in redis, including misses. Redis failures
// are logged and the lookup falls through to the wrapped source.
type RateCache struct {
	client goredis.Cmdable
	next   domainpayout.RateLookup
	ttl    time.Duration
	logger *slog.Logger
}

func NewRateCache(client goredis.Cmdable, next domainpayout.RateLookup, ttl time.Duration, logger *slog.Logger) *RateCache {
	if ttl <= 0 {
		ttl = DefaultRateTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RateCache{client: client, next: next, ttl: ttl, logger: logger}
}

func (c *RateCache) CommissionRate(ctx context.Context, key domainpayout.RateKey) (float64, error) {
	k := cacheKey(key)
	raw, err := c.client.Get(ctx, k).Result()
	switch {
	case err == nil:
		if raw == notFoundMarker {
			return 0, domainpayout.ErrRateNotFound
		}
		if rate, perr := strconv.ParseFloat(raw, 64); perr == nil {
			return rate, nil
		}
		c.logger.Warn("rate cache: corrupt entry", "key", k)
	case !errors.Is(err, goredis.Nil):
		c.logger.Warn("rate cache: get failed", "key", k, "err", err)
	}

	rate, err := c.next.CommissionRate(ctx, key)
	value := strconv.FormatFloat(rate, 'f', -1, 64)
	switch {
	case errors.Is(err, domainpayout.ErrRateNotFound):
		value = notFoundMarker
	case err != nil:
		return 0, err
	}
	if serr := c.client.Set(ctx, k, value, c.ttl).Err(); serr != nil {
		c.logger.Warn("rate cache: set failed", "key", k, "err", serr)
	}
	return rate, err
}

// Invalidate drops cached rates of category in city, or in every city when
// city is empty.
func (c *RateCache) Invalidate(ctx context.Context, category, city string) (int, error) {
	iter := c.client.Scan(ctx, 0, invalidationPattern(category, city), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis: scan rates: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := c.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: delete rates: %w", err)
	}
	return int(n), nil
}

func cacheKey(key domainpayout.RateKey) string {
	return strings.Join([]string{
		keyPrefix,
		normalize(key.ServiceCategory),
		normalize(key.City),
		key.EffectiveDate.UTC().Format(time.DateOnly),
	}, ":")
}

func invalidationPattern(category, city string) string {
	if city = normalize(city); city == "" {
		return keyPrefix + ":" + normalize(category) + ":*"
	}
	return keyPrefix + ":" + normalize(category) + ":" + city + ":*"
}

func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

var _ domainpayout.RateLookup = (*RateCache)(nil)
