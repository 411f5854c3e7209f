package middleware

import (
	"context"

	"homepro/internal/app/commands"
	"homepro/internal/app/outbox"
)

// OutboxFlush persists the events buffered by a successful command. Outboxes
// implementing outbox.Discarder drop the buffer of a failed one.
func OutboxFlush(box outbox.Outbox) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				if d, ok := box.(outbox.Discarder); ok {
					_ = d.Discard(ctx)
				}
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
