package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"
)

type MessageHandler interface {
	Handle(ctx context.Context, msg *sarama.ConsumerMessage) error
}

// Consumer feeds a consumer group into a MessageHandler. Messages whose handler
// fails are left unmarked and redelivered after a rebalance.
type Consumer struct {
	group   sarama.ConsumerGroup
	handler MessageHandler
	logger  *slog.Logger
}

func NewConsumer(c Config, groupID string, handler MessageHandler, logger *slog.Logger) (*Consumer, error) {
	if len(c.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	cfg := c.sarama()
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	g, err := sarama.NewConsumerGroup(c.Brokers, groupID, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka: new consumer group: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{group: g, handler: handler, logger: logger}, nil
}

func (c *Consumer) Run(ctx context.Context, topics []string) error {
	for {
		err := c.group.Consume(ctx, topics, consumerGroupHandler{handler: c.handler, logger: c.logger})
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil && !errors.Is(err, sarama.ErrClosedConsumerGroup) {
			return err
		}
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

type consumerGroupHandler struct {
	handler MessageHandler
	logger  *slog.Logger
}

func (h consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h consumerGroupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		if err := h.handler.Handle(sess.Context(), message); err != nil {
			h.logger.Warn("kafka message not handled", "topic", message.Topic, "partition", message.Partition, "offset", message.Offset, "error", err)
			continue
		}
		sess.MarkMessage(message, "")
	}
	return nil
}
