package obs

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc/credentials"
)

const ServiceName = "homepro"

// TracerShutdown flushes and stops the tracer provider.
type TracerShutdown func(context.Context) error

// NewTracer exports spans over OTLP/gRPC to endpoint. An empty endpoint
// returns a no-op tracer. An https:// endpoint is dialed with TLS.
func NewTracer(ctx context.Context, endpoint, env string) (trace.Tracer, TracerShutdown, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return noop.NewTracerProvider().Tracer(ServiceName), func(context.Context) error { return nil }, nil
	}
	transport := otlptracegrpc.WithInsecure()
	if strings.HasPrefix(endpoint, "https://") {
		transport = otlptracegrpc.WithTLSCredentials(credentials.NewTLS(nil))
	}
	endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "http://"), "https://")
	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(endpoint), transport)
	if err != nil {
		return nil, nil, fmt.Errorf("obs: otlp exporter: %w", err)
	}
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.DeploymentEnvironment(env),
	)
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	return provider.Tracer(ServiceName), provider.Shutdown, nil
}
