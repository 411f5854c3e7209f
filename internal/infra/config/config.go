package config

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	domainbooking "homepro/internal/domain/booking"
	domainpayout "homepro/internal/domain/payout"
)

const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"

	BrokerNone     = "none"
	BrokerKafka    = "kafka"
	BrokerRabbitMQ = "rabbitmq"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env      string `envconfig:"APP_ENV" default:"dev"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	// CORSOrigins lists allowed browser origins; empty allows none.
	CORSOrigins []string `envconfig:"CORS_ORIGINS"`

	StorageMode string `envconfig:"STORAGE_MODE" default:"memory"`
	MongoURI    string `envconfig:"MONGO_URI"`
	MongoDB     string `envconfig:"MONGO_DB" default:"homepro"`

	PostgresDSN          string        `envconfig:"POSTGRES_DSN"`
	PostgresMaxOpenConns int           `envconfig:"POSTGRES_MAX_OPEN_CONNS" default:"10"`
	PostgresConnLifetime time.Duration `envconfig:"POSTGRES_CONN_MAX_LIFETIME" default:"30m"`
	// RateProcedure names a stored function resolving override rates; empty
	// queries the commission_rules table.
	RateProcedure string `envconfig:"COMMISSION_RATE_PROCEDURE"`

	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	RateCacheTTL  time.Duration `envconfig:"RATE_CACHE_TTL" default:"10m"`

	Broker             string          `envconfig:"BROKER" default:"none"`
	KafkaBrokers       []string        `envconfig:"KAFKA_BROKERS"`
	KafkaTopicPrefix   string          `envconfig:"KAFKA_TOPIC_PREFIX"`
	KafkaConsumerGroup string          `envconfig:"KAFKA_CONSUMER_GROUP" default:"homepro-rate-cache"`
	KafkaRateRuleTopic string          `envconfig:"KAFKA_RATE_RULE_TOPIC" default:"commission_rules"`
	RabbitURL          string          `envconfig:"RABBIT_URL"`
	RabbitExchange     string          `envconfig:"RABBIT_EXCHANGE" default:"homepro.events"`
	OutboxPollInterval time.Duration   `envconfig:"OUTBOX_POLL_INTERVAL" default:"500ms"`
	RetryBackoff       []time.Duration `envconfig:"RETRY_BACKOFF" default:"1s,5s,30s"`
	IdempotencyTTL     time.Duration   `envconfig:"IDEMP_TTL" default:"168h"`

	S3Endpoint  string        `envconfig:"S3_ENDPOINT"`
	S3AccessKey string        `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string        `envconfig:"S3_SECRET_KEY"`
	S3Bucket    string        `envconfig:"S3_BUCKET" default:"homepro-statements"`
	S3UseSSL    bool          `envconfig:"S3_USE_SSL" default:"false"`
	S3LinkTTL   time.Duration `envconfig:"S3_LINK_TTL" default:"168h"`

	CronSecretHash string `envconfig:"CRON_SECRET_HASH"`
	OTLPEndpoint   string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	PayoutDefaultRate     float64 `envconfig:"PAYOUT_DEFAULT_RATE" default:"0.15"`
	PayoutDefaultCurrency string  `envconfig:"PAYOUT_DEFAULT_CURRENCY" default:"COP"`
	PayoutDefaultCountry  string  `envconfig:"PAYOUT_DEFAULT_COUNTRY" default:"CO"`
	PayoutCountryRates    string  `envconfig:"PAYOUT_COUNTRY_RATES"`
	PayoutTimezone        string  `envconfig:"PAYOUT_TIMEZONE" default:"America/Bogota"`
	// StrictRateLookups aborts a dynamic payout run on the first failed override lookup.
	StrictRateLookups bool `envconfig:"PAYOUT_STRICT_RATE_LOOKUPS" default:"false"`

	// PayoutAutorun triggers payouts.run in process instead of waiting for the cron endpoint.
	PayoutAutorun      bool          `envconfig:"PAYOUT_AUTORUN" default:"false"`
	PayoutAutorunDelay time.Duration `envconfig:"PAYOUT_AUTORUN_DELAY" default:"5m"`

	// CancellationTiers is a list of hours:percent pairs, e.g. "24:100,12:50,4:25".
	CancellationTiers string `envconfig:"CANCELLATION_TIERS"`
}

// Load reads an optional .env file, then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg.StorageMode = strings.ToLower(strings.TrimSpace(cfg.StorageMode))
	cfg.Broker = strings.ToLower(strings.TrimSpace(cfg.Broker))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StorageMode {
	case StorageMemory:
	case StorageMongo:
		if c.MongoURI == "" {
			return errors.New("config: MONGO_URI is required for mongo storage")
		}
	default:
		return fmt.Errorf("config: unknown STORAGE_MODE %q", c.StorageMode)
	}
	switch c.Broker {
	case BrokerNone:
	case BrokerKafka:
		if len(c.KafkaBrokers) == 0 {
			return errors.New("config: KAFKA_BROKERS is required for the kafka broker")
		}
	case BrokerRabbitMQ:
		if c.RabbitURL == "" {
			return errors.New("config: RABBIT_URL is required for the rabbitmq broker")
		}
	default:
		return fmt.Errorf("config: unknown BROKER %q", c.Broker)
	}
	if _, err := c.PayoutConfig(); err != nil {
		return err
	}
	if _, err := c.PayoutLocation(); err != nil {
		return err
	}
	if _, err := c.CancellationPolicy(); err != nil {
		return err
	}
	return nil
}

// PayoutConfig starts from the built-in country table and applies overrides.
func (c Config) PayoutConfig() (domainpayout.Config, error) {
	out := domainpayout.DefaultConfig()
	out.DefaultRate = c.PayoutDefaultRate
	out.DefaultCurrency = strings.ToUpper(strings.TrimSpace(c.PayoutDefaultCurrency))
	out.DefaultCountry = strings.ToUpper(strings.TrimSpace(c.PayoutDefaultCountry))
	countries, err := domainpayout.ParseCountryRates(c.PayoutCountryRates)
	if err != nil {
		return domainpayout.Config{}, err
	}
	for code, rate := range countries {
		out.Countries[code] = rate
	}
	if err := out.Validate(); err != nil {
		return domainpayout.Config{}, fmt.Errorf("config: %w", err)
	}
	return out, nil
}

func (c Config) PayoutLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(strings.TrimSpace(c.PayoutTimezone))
	if err != nil {
		return nil, fmt.Errorf("config: PAYOUT_TIMEZONE: %w", err)
	}
	return loc, nil
}

func (c Config) CancellationPolicy() (domainbooking.CancellationPolicy, error) {
	raw := strings.TrimSpace(c.CancellationTiers)
	if raw == "" {
		return domainbooking.DefaultCancellationPolicy(), nil
	}
	var tiers []domainbooking.RefundTier
	for _, part := range strings.Split(raw, ",") {
		hours, percent, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return domainbooking.CancellationPolicy{}, fmt.Errorf("config: invalid cancellation tier %q", part)
		}
		h, err := strconv.ParseFloat(strings.TrimSpace(hours), 64)
		if err != nil || h < 0 {
			return domainbooking.CancellationPolicy{}, fmt.Errorf("config: invalid tier hours %q", hours)
		}
		p, err := strconv.Atoi(strings.TrimSpace(percent))
		if err != nil || p < 0 || p > 100 {
			return domainbooking.CancellationPolicy{}, fmt.Errorf("config: invalid tier percent %q", percent)
		}
		tiers = append(tiers, domainbooking.RefundTier{MinHours: h, Percent: p})
	}
	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].MinHours > tiers[j].MinHours })
	return domainbooking.CancellationPolicy{Tiers: tiers}, nil
}
