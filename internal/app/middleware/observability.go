package middleware

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"homepro/internal/app/commands"
	"homepro/internal/app/queries"
)

// Logging logs every command with its key, duration and outcome.
func Logging(logger *slog.Logger) CommandMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				logger.WarnContext(ctx, "command failed", "command", cmd.Key(), "duration", time.Since(start), "error", err)
				return nil, err
			}
			logger.DebugContext(ctx, "command handled", "command", cmd.Key(), "duration", time.Since(start))
			return res, nil
		})
	}
}

// Tracing opens one span per command named after its key.
func Tracing(tracer trace.Tracer) CommandMiddleware {
	if tracer == nil {
		return nil
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			ctx, span := tracer.Start(ctx, "command "+cmd.Key(), trace.WithAttributes(attribute.String("bus.key", cmd.Key())))
			defer span.End()
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			return res, err
		})
	}
}

func QueryTracing(tracer trace.Tracer) QueryMiddleware {
	if tracer == nil {
		return nil
	}
	return func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			ctx, span := tracer.Start(ctx, "query "+q.Key(), trace.WithAttributes(attribute.String("bus.key", q.Key())))
			defer span.End()
			res, err := next.Ask(ctx, q)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			return res, err
		})
	}
}
