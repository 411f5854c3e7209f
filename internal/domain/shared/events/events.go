package events

import "time"

type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// EventRecorder is embedded by aggregates that buffer events until the caller
// hands them to the outbox.
type EventRecorder struct {
	pending []DomainEvent
}

func (r *EventRecorder) Record(event DomainEvent) {
	if event == nil {
		return
	}
	r.pending = append(r.pending, event)
}

func (r *EventRecorder) PendingEvents() []DomainEvent {
	out := make([]DomainEvent, len(r.pending))
	copy(out, r.pending)
	return out
}

// DrainEvents returns pending events and clears the buffer.
func (r *EventRecorder) DrainEvents() []DomainEvent {
	out := r.PendingEvents()
	r.pending = nil
	return out
}

func (r *EventRecorder) ClearEvents() {
	r.pending = nil
}
