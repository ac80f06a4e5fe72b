// Package traces wires OpenTelemetry tracing for provider calls.
package traces

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/mbd888/bidguard"

// Init installs a global tracer provider exporting to otlpEndpoint over gRPC.
// With an empty endpoint the global no-op provider is left in place.
// The returned function flushes and stops the provider.
func Init(ctx context.Context, otlpEndpoint, serviceName, version string, logger *slog.Logger) (func(context.Context) error, error) {
	if otlpEndpoint == "" {
		logger.Info("tracing disabled (no OTEL_EXPORTER_OTLP_ENDPOINT set)")
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(otlpEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	logger.Info("tracing enabled", "endpoint", otlpEndpoint)
	return tp.Shutdown, nil
}

// StartSpan starts a span named name on the global tracer.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name)
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	return ctx, span
}

func Provider(name string) attribute.KeyValue {
	return attribute.String("fraud.provider", name)
}

func Seller(domain string) attribute.KeyValue {
	return attribute.String("bid.seller", domain)
}

func RequestType(rt string) attribute.KeyValue {
	return attribute.String("bid.request_type", rt)
}

func Outcome(outcome string) attribute.KeyValue {
	return attribute.String("fraud.outcome", outcome)
}

func RiskScore(score int) attribute.KeyValue {
	return attribute.Int("fraud.risk_score", score)
}

func RoundTripMillis(ms int64) attribute.KeyValue {
	return attribute.Int64("fraud.round_trip_ms", ms)
}
