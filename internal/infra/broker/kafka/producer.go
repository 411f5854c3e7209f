package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/IBM/sarama"
)

var ErrNoBrokers = errors.New("kafka: no brokers configured")

type Config struct {
	Brokers  []string
	ClientID string
}

func (c Config) sarama() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	if c.ClientID != "" {
		cfg.ClientID = c.ClientID
	}
	return cfg
}

// Producer publishes outbox events synchronously, waiting for all in-sync replicas.
type Producer struct {
	sync sarama.SyncProducer
}

func NewProducer(c Config) (*Producer, error) {
	if len(c.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	cfg := c.sarama()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Producer.Return.Successes = true
	cfg.Net.MaxOpenRequests = 1
	sync, err := sarama.NewSyncProducer(c.Brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka: new producer: %w", err)
	}
	return &Producer{sync: sync}, nil
}

func (p *Producer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	hs := make([]sarama.RecordHeader, 0, len(headers))
	for k, v := range headers {
		hs = append(hs, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}
	_, _, err := p.sync.SendMessage(&sarama.ProducerMessage{
		Topic:   topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(payload),
		Headers: hs,
	})
	if err != nil {
		return fmt.Errorf("kafka: publish %s: %w", topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.sync == nil {
		return nil
	}
	return p.sync.Close()
}
