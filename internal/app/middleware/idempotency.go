package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"homepro/internal/app/commands"
)

// IdempotentCommand is implemented by commands that can be safely retried
// with the same key.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	// ResultPrototype returns a pointer to a zero value of the handler result.
	ResultPrototype() any
}

type IdempotencyRecord struct {
	Key        string
	CommandKey string
	Payload    []byte
	OccurredAt time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONResultCodec) Decode(data []byte, out any) error { return json.Unmarshal(data, out) }

var (
	ErrIdempotencyKeyReused = errors.New("middleware: idempotency key reused for a different command")
	errMissingPrototype     = errors.New("middleware: idempotent command requires result prototype")
)

// Idempotency replays the stored result of a successful command carrying a
// known key. Failed executions are not stored so the caller may retry them.
func Idempotency(store IdempotencyStore, codec ResultCodec) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok || idCmd.IdempotencyKey() == "" {
				return next.Dispatch(ctx, cmd)
			}
			key := idCmd.IdempotencyKey()
			rec, found, err := store.Get(ctx, key)
			if err != nil {
				return nil, fmt.Errorf("idempotency lookup: %w", err)
			}
			if found {
				if rec.CommandKey != "" && rec.CommandKey != cmd.Key() {
					return nil, fmt.Errorf("%w: %s", ErrIdempotencyKeyReused, key)
				}
				return replay(rec, idCmd, codec)
			}

			result, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			record := IdempotencyRecord{Key: key, CommandKey: cmd.Key(), OccurredAt: time.Now().UTC()}
			if result != nil {
				if record.Payload, err = codec.Encode(result); err != nil {
					return nil, fmt.Errorf("idempotency encode: %w", err)
				}
			}
			if err := store.Save(ctx, record); err != nil {
				return nil, fmt.Errorf("idempotency save: %w", err)
			}
			return result, nil
		})
	}
}

func replay(rec IdempotencyRecord, cmd IdempotentCommand, codec ResultCodec) (any, error) {
	proto := cmd.ResultPrototype()
	if proto == nil {
		return nil, errMissingPrototype
	}
	if len(rec.Payload) == 0 {
		return nil, nil
	}
	if err := codec.Decode(rec.Payload, proto); err != nil {
		return nil, fmt.Errorf("idempotency decode: %w", err)
	}
	return proto, nil
}
