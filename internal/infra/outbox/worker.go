package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

// Producer publishes one serialized event to a broker topic.
type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Worker drains an outbox Source into a Producer, wrapping each event in a
// CloudEvents JSON envelope.
type Worker struct {
	Source      Source
	Producer    Producer
	Logger      *slog.Logger
	Interval    time.Duration
	BatchSize   int
	TopicPrefix string
	EventSource string
	ID          string
	Backoff     []time.Duration
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Source == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Drain(ctx); err != nil && ctx.Err() == nil {
				w.logger().Warn("outbox drain failed", "worker", w.ID, "error", err)
			}
		}
	}
}

// Drain publishes up to BatchSize due messages and reports how many were sent.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	sent := 0
	for i := 0; i < w.batchSize(); i++ {
		msg, err := w.Source.Claim(ctx, w.ID)
		if err != nil {
			return sent, fmt.Errorf("outbox: claim: %w", err)
		}
		if msg == nil {
			return sent, nil
		}
		if err := w.publish(ctx, msg); err != nil {
			next := w.nextRetry(msg.Attempts)
			w.logger().Warn("outbox publish failed", "event_id", msg.ID, "event", msg.Name, "attempt", msg.Attempts+1, "retry_at", next, "error", err)
			if markErr := w.Source.MarkFailed(ctx, msg.ID, next, err.Error()); markErr != nil {
				return sent, markErr
			}
			continue
		}
		if err := w.Source.MarkSent(ctx, msg.ID); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

func (w *Worker) publish(ctx context.Context, msg *Message) error {
	payload, headers, err := w.envelope(msg)
	if err != nil {
		return err
	}
	return w.Producer.Publish(ctx, w.topicFor(msg.Name), msg.Aggregate, payload, headers)
}

func (w *Worker) envelope(msg *Message) ([]byte, map[string]string, error) {
	var data json.RawMessage = msg.Payload
	if !json.Valid(data) {
		return nil, nil, fmt.Errorf("outbox: event %s has invalid json payload", msg.ID)
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              msg.ID,
		"type":            msg.Name + ".v1",
		"source":          w.eventSource(),
		"subject":         msg.Aggregate,
		"time":            msg.OccurredAt,
		"datacontenttype": "application/json",
		"data":            data,
	}
	if trace, ok := msg.Headers["traceparent"]; ok {
		evt["traceparent"] = trace
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers["content-type"] = "application/cloudevents+json"
	return payload, headers, nil
}

// topicFor maps "booking.cancelled" to "<prefix>booking.events.v1".
func (w *Worker) topicFor(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	return w.TopicPrefix + base + ".events.v1"
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) batchSize() int {
	if w.BatchSize <= 0 {
		return 50
	}
	return w.BatchSize
}

func (w *Worker) nextRetry(attempts int) time.Time {
	switch {
	case attempts < len(w.Backoff):
		return time.Now().Add(w.Backoff[attempts])
	case len(w.Backoff) > 0:
		return time.Now().Add(w.Backoff[len(w.Backoff)-1])
	default:
		return time.Now().Add(5 * time.Second)
	}
}

func (w *Worker) eventSource() string {
	if w.EventSource != "" {
		return w.EventSource
	}
	return "app://homepro"
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}
