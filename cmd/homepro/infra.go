package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"homepro/internal/app/middleware"
	appoutbox "homepro/internal/app/outbox"
	"homepro/internal/app/policies"
	"homepro/internal/app/uow"
	domainavailability "homepro/internal/domain/availability"
	domainpayout "homepro/internal/domain/payout"
	"homepro/internal/infra/broker/kafka"
	"homepro/internal/infra/broker/logsink"
	"homepro/internal/infra/broker/rabbitmq"
	rediscache "homepro/internal/infra/cache/redis"
	"homepro/internal/infra/config"
	mongodb "homepro/internal/infra/db/mongo"
	"homepro/internal/infra/db/postgres"
	"homepro/internal/infra/inbox"
	"homepro/internal/infra/obs"
	infraoutbox "homepro/internal/infra/outbox"
	"homepro/internal/infra/storage/memory"
	"homepro/internal/infra/storage/s3"
)

const kafkaClientID = "homepro"

// infrastructure owns every adapter picked by configuration and the
// background loops running next to the HTTP server.
type infrastructure struct {
	uow         uow.UoWFactory
	outbox      appoutbox.Outbox
	source      infraoutbox.Source
	idempotency middleware.IdempotencyStore
	rates       domainpayout.RateLookup
	rateCache   *rediscache.RateCache
	refunds     policies.RefundsPort
	statements  policies.StatementExporter
	producer    infraoutbox.Producer
	mongoDB     *mongo.Database
	checks      map[string]obs.Check

	closers []func(context.Context) error
	wg      sync.WaitGroup
}

func buildInfrastructure(ctx context.Context, cfg config.Config, logger *slog.Logger) (*infrastructure, error) {
	infra := &infrastructure{checks: map[string]obs.Check{}, refunds: memory.NewRefundLedger()}
	ok := false
	defer func() {
		if !ok {
			infra.close(logger)
		}
	}()

	var availability domainavailability.Repository = memory.NewAvailabilityRepository()
	var rates domainpayout.RateLookup = memory.NewRateTable()
	if cfg.PostgresDSN != "" {
		db, err := postgres.NewGormDB(postgres.Config{
			DSN:             cfg.PostgresDSN,
			MaxOpenConns:    cfg.PostgresMaxOpenConns,
			ConnMaxLifetime: cfg.PostgresConnLifetime,
		})
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		infra.closers = append(infra.closers, func(context.Context) error { return sqlDB.Close() })
		infra.checks["postgres"] = sqlDB.PingContext
		if err := postgres.AutoMigrate(db); err != nil {
			return nil, err
		}
		lookup, err := postgres.NewRateLookup(db, cfg.RateProcedure)
		if err != nil {
			return nil, err
		}
		availability = postgres.NewAvailabilityRepository(db)
		rates = lookup
		logger.Info("postgres connected", "rate_procedure", cfg.RateProcedure)
	}

	if cfg.RedisAddr != "" {
		client, err := rediscache.NewClient(ctx, rediscache.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		infra.closers = append(infra.closers, func(context.Context) error { return client.Close() })
		infra.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		infra.rateCache = rediscache.NewRateCache(client, rates, cfg.RateCacheTTL, logger)
		rates = infra.rateCache
	}
	infra.rates = rates

	switch cfg.StorageMode {
	case config.StorageMongo:
		if err := infra.useMongo(ctx, cfg, availability); err != nil {
			return nil, err
		}
	default:
		bookings := memory.NewBookingRepository()
		box := memory.NewOutbox()
		infra.uow = memory.Factory{BookingRepo: bookings, AvailabilityRepo: availability, PayoutRepo: memory.NewPayoutRepository(), Outbox: box}
		infra.outbox = box
		infra.source = box
		infra.idempotency = memory.NewIdempotencyStore(cfg.IdempotencyTTL)
	}

	producer, err := newProducer(cfg, logger)
	if err != nil {
		return nil, err
	}
	infra.producer = producer

	if cfg.S3Endpoint != "" {
		client, err := s3.NewClient(s3.Config{
			Endpoint:  cfg.S3Endpoint,
			UseSSL:    cfg.S3UseSSL,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			LinkTTL:   cfg.S3LinkTTL,
		}, logger)
		if err != nil {
			return nil, err
		}
		infra.statements = s3.StatementExporter{Uploader: client}
	}

	ok = true
	return infra, nil
}

func (i *infrastructure) useMongo(ctx context.Context, cfg config.Config, availability domainavailability.Repository) error {
	client, err := mongodb.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return fmt.Errorf("mongo: %w", err)
	}
	i.closers = append(i.closers, client.Close)
	i.checks["mongo"] = client.Ping
	i.mongoDB = client.DB

	bookings := mongodb.NewBookingRepository(client.DB)
	if err := bookings.EnsureIndexes(ctx); err != nil {
		return err
	}
	payouts := mongodb.NewPayoutRepository(client.DB)
	if err := payouts.EnsureIndexes(ctx); err != nil {
		return err
	}
	idem, err := mongodb.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
	if err != nil {
		return err
	}
	box, err := infraoutbox.NewStore(ctx, client.DB, time.Minute)
	if err != nil {
		return err
	}
	i.uow = mongodb.Factory{DB: client.DB, BookingRepo: bookings, AvailabilityRepo: availability, PayoutRepo: payouts}
	i.outbox = box
	i.source = box
	i.idempotency = idem
	return nil
}

func newProducer(cfg config.Config, logger *slog.Logger) (infraoutbox.Producer, error) {
	switch cfg.Broker {
	case config.BrokerKafka:
		return kafka.NewProducer(kafka.Config{Brokers: cfg.KafkaBrokers, ClientID: kafkaClientID})
	case config.BrokerRabbitMQ:
		return rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
	default:
		return logsink.Producer{Logger: logger.With("component", "logsink")}, nil
	}
}

// startBackground runs the outbox worker and, with Kafka and Redis both
// configured, the consumer that drops cached rates on rule changes.
func (i *infrastructure) startBackground(ctx context.Context, cfg config.Config, logger *slog.Logger) {
	worker := &infraoutbox.Worker{
		Source:      i.source,
		Producer:    i.producer,
		Logger:      logger.With("component", "outbox"),
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		EventSource: "/" + obs.ServiceName,
		Backoff:     cfg.RetryBackoff,
	}
	i.goRun(logger, "outbox worker", func() error { return worker.Run(ctx) })

	if cfg.Broker != config.BrokerKafka || i.rateCache == nil {
		return
	}
	handler := kafka.RateRuleHandler{Cache: i.rateCache, Logger: logger.With("component", "rate-rules")}
	if i.mongoDB != nil {
		store, err := inbox.NewStore(ctx, i.mongoDB, cfg.KafkaConsumerGroup)
		if err != nil {
			logger.Warn("inbox unavailable, rate rule events are not deduplicated", "error", err)
		} else {
			handler.Inbox = store
		}
	}
	consumer, err := kafka.NewConsumer(kafka.Config{Brokers: cfg.KafkaBrokers, ClientID: kafkaClientID}, cfg.KafkaConsumerGroup, handler, logger)
	if err != nil {
		logger.Error("rate rule consumer not started", "error", err)
		return
	}
	i.closers = append(i.closers, func(context.Context) error { return consumer.Close() })
	topic := cfg.KafkaTopicPrefix + cfg.KafkaRateRuleTopic
	i.goRun(logger, "rate rule consumer", func() error { return consumer.Run(ctx, []string{topic}) })
}

func (i *infrastructure) goRun(logger *slog.Logger, name string, run func() error) {
	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		if err := run(); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error(name+" stopped", "error", err)
		}
	}()
}

func (i *infrastructure) wait() {
	i.wg.Wait()
}

// close releases adapters in reverse order of creation.
func (i *infrastructure) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if c, ok := i.producer.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			logger.Warn("producer close failed", "error", err)
		}
	}
	for n := len(i.closers) - 1; n >= 0; n-- {
		if err := i.closers[n](ctx); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}
	i.closers = nil
}
