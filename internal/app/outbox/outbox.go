package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"homepro/internal/domain/shared/events"
)

// EventRecord is a serialized domain event waiting to be published.
type EventRecord struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
}

// Outbox buffers records added during a command. Flush makes them visible to
// the publisher.
type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
}

// Discarder is implemented by outboxes that can drop records added since the
// last Flush.
type Discarder interface {
	Discard(ctx context.Context) error
}

type EventEncoder interface {
	Encode(ev events.DomainEvent) (EventRecord, error)
}

type JSONEventEncoder struct {
	Source      string
	IDGenerator func() string
}

func (e JSONEventEncoder) Encode(ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, fmt.Errorf("outbox: encode %s: %w", ev.EventName(), err)
	}
	idGen := e.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}
	headers := map[string]string{"content-type": "application/json"}
	if e.Source != "" {
		headers["source"] = e.Source
	}
	return EventRecord{
		ID:         idGen(),
		Name:       ev.EventName(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt().UTC(),
		Aggregate:  ev.AggregateID(),
		Headers:    headers,
	}, nil
}

// RecordDomainEvents encodes evs and adds them to box in order. The trace
// context of ctx travels in the record headers.
func RecordDomainEvents(ctx context.Context, box Outbox, encoder EventEncoder, evs []events.DomainEvent) error {
	if box == nil || len(evs) == 0 {
		return nil
	}
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	for _, ev := range evs {
		rec, err := encoder.Encode(ev)
		if err != nil {
			return err
		}
		if rec.Headers == nil {
			rec.Headers = map[string]string{}
		}
		otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(rec.Headers))
		if err := box.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
