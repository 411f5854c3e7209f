package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"
)

// RateRuleUpdatedType is the CloudEvents type emitted when a commission rule changes.
const RateRuleUpdatedType = "commission_rule.updated.v1"

type RateInvalidator interface {
	Invalidate(ctx context.Context, category, city string) (int, error)
}

// Inbox deduplicates redelivered events.
type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

// RateRuleHandler drops cached commission rates when a rule changes. Other
// event types are acknowledged and ignored.
type RateRuleHandler struct {
	Cache  RateInvalidator
	Inbox  Inbox
	Logger *slog.Logger
}

type cloudEvent struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type rateRuleChange struct {
	ServiceCategory string `json:"service_category"`
	City            string `json:"city"`
}

func (h RateRuleHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var evt cloudEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		h.logger().Warn("dropping malformed event", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		return nil
	}
	if evt.Type != RateRuleUpdatedType {
		return nil
	}
	var change rateRuleChange
	if err := json.Unmarshal(evt.Data, &change); err != nil || change.ServiceCategory == "" {
		h.logger().Warn("dropping rate rule event without category", "event_id", evt.ID)
		return nil
	}
	if h.Inbox != nil && evt.ID != "" {
		seen, err := h.Inbox.Seen(ctx, evt.ID)
		if err != nil {
			return fmt.Errorf("kafka: inbox: %w", err)
		}
		if seen {
			return nil
		}
	}
	n, err := h.Cache.Invalidate(ctx, change.ServiceCategory, change.City)
	if err != nil {
		if h.Inbox != nil && evt.ID != "" {
			if ferr := h.Inbox.Forget(ctx, evt.ID); ferr != nil {
				h.logger().Warn("inbox forget failed", "event_id", evt.ID, "error", ferr)
			}
		}
		return err
	}
	h.logger().Info("commission rates invalidated", "event_id", evt.ID, "category", change.ServiceCategory, "city", change.City, "keys", n)
	return nil
}

func (h RateRuleHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var _ MessageHandler = RateRuleHandler{}
