package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "homepro/internal/app/outbox"
	infraoutbox "homepro/internal/infra/outbox"
)

// Outbox stages records per unit of work until Flush and then serves them to
// the outbox worker. Records added outside a unit share one unnamed stage.
type Outbox struct {
	mu      sync.Mutex
	staged  map[*Unit][]appoutbox.EventRecord
	ready   []*infraoutbox.Message
	claimed map[string]*infraoutbox.Message
	sent    []infraoutbox.Message
}

func NewOutbox() *Outbox {
	return &Outbox{
		staged:  make(map[*Unit][]appoutbox.EventRecord),
		claimed: make(map[string]*infraoutbox.Message),
	}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	stage := stageFrom(ctx)
	o.mu.Lock()
	defer o.mu.Unlock()
	o.staged[stage] = append(o.staged[stage], record)
	return nil
}

// Flush moves the records staged by the unit in ctx to the ready queue.
func (o *Outbox) Flush(ctx context.Context) error {
	o.release(stageFrom(ctx))
	return nil
}

// Discard drops the records staged by the unit in ctx.
func (o *Outbox) Discard(ctx context.Context) error {
	o.drop(stageFrom(ctx))
	return nil
}

func (o *Outbox) release(stage *Unit) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := time.Now().UTC()
	for _, r := range o.staged[stage] {
		o.ready = append(o.ready, &infraoutbox.Message{
			ID:          r.ID,
			Name:        r.Name,
			Payload:     r.Payload,
			OccurredAt:  r.OccurredAt,
			Aggregate:   r.Aggregate,
			Headers:     r.Headers,
			NextAttempt: now,
		})
	}
	delete(o.staged, stage)
}

func (o *Outbox) drop(stage *Unit) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.staged, stage)
}

// Staged counts the records waiting on every unit that has not finished.
func (o *Outbox) Staged() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, records := range o.staged {
		n += len(records)
	}
	return n
}

// Claim hands out the oldest ready message whose retry time has passed.
func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.Message, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := time.Now()
	for i, m := range o.ready {
		if m.NextAttempt.After(now) {
			continue
		}
		o.ready = append(o.ready[:i], o.ready[i+1:]...)
		o.claimed[m.ID] = m
		c := *m
		return &c, nil
	}
	return nil, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if m, ok := o.claimed[id]; ok {
		delete(o.claimed, id)
		o.sent = append(o.sent, *m)
	}
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	m, ok := o.claimed[id]
	if !ok {
		return nil
	}
	delete(o.claimed, id)
	m.Attempts++
	m.NextAttempt = next
	m.LastError = errMsg
	o.ready = append(o.ready, m)
	return nil
}

// Ready returns the names of flushed messages not yet sent.
func (o *Outbox) Ready() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.ready))
	for _, m := range o.ready {
		out = append(out, m.Name)
	}
	return out
}

// Sent returns the messages the worker has published.
func (o *Outbox) Sent() []infraoutbox.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]infraoutbox.Message(nil), o.sent...)
}

var (
	_ appoutbox.Outbox    = (*Outbox)(nil)
	_ appoutbox.Discarder = (*Outbox)(nil)
	_ infraoutbox.Source  = (*Outbox)(nil)
)
