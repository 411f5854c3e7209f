package payout

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CountryRate is the baseline commission applied to bookings of a country.
type CountryRate struct {
	Currency string  `json:"currency"`
	Rate     float64 `json:"rate"`
}

// Config carries the fallback constants used when a batch gives no better answer.
type Config struct {
	DefaultCurrency string
	DefaultCountry  string
	DefaultRate     float64
	Countries       map[string]CountryRate
}

func DefaultConfig() Config {
	return Config{
		DefaultCurrency: "COP",
		DefaultCountry:  "CO",
		DefaultRate:     0.15,
		Countries: map[string]CountryRate{
			"CO": {Currency: "COP", Rate: 0.15},
			"MX": {Currency: "MXN", Rate: 0.15},
			"PE": {Currency: "PEN", Rate: 0.12},
			"CL": {Currency: "CLP", Rate: 0.12},
			"AR": {Currency: "ARS", Rate: 0.13},
			"EC": {Currency: "USD", Rate: 0.12},
			"US": {Currency: "USD", Rate: 0.10},
		},
	}
}

// RateFor returns the static commission rate of a country.
func (c Config) RateFor(country string) float64 {
	if cr, ok := c.Countries[normalizeCode(country)]; ok {
		return cr.Rate
	}
	return c.DefaultRate
}

// CurrencyFor returns the settlement currency of a country.
func (c Config) CurrencyFor(country string) string {
	if cr, ok := c.Countries[normalizeCode(country)]; ok && cr.Currency != "" {
		return cr.Currency
	}
	return c.DefaultCurrency
}

func (c Config) Validate() error {
	if len(c.DefaultCurrency) != 3 {
		return fmt.Errorf("payout: invalid default currency %q", c.DefaultCurrency)
	}
	if err := validateRate(c.DefaultRate); err != nil {
		return err
	}
	for code, cr := range c.Countries {
		if err := validateRate(cr.Rate); err != nil {
			return fmt.Errorf("country %s: %w", code, err)
		}
	}
	return nil
}

// ParseCountryRates decodes a JSON object like {"CO":{"currency":"COP","rate":0.15}}.
func ParseCountryRates(raw string) (map[string]CountryRate, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var decoded map[string]CountryRate
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("payout: decode country rates: %w", err)
	}
	out := make(map[string]CountryRate, len(decoded))
	for code, cr := range decoded {
		key := normalizeCode(code)
		if key == "" {
			continue
		}
		cr.Currency = normalizeCode(cr.Currency)
		out[key] = cr
	}
	return out, nil
}

func validateRate(rate float64) error {
	if rate < 0 || rate >= 1 {
		return fmt.Errorf("payout: commission rate %v out of range [0,1)", rate)
	}
	return nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
