package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type OtlpConfig struct {
	HttpEndpoint string            `json:"http_endpoint"`
	Headers      map[string]string `json:"headers"`
}

// Tracing owns the tracer provider installed by SetupTracing.
type Tracing struct {
	provider *sdktrace.TracerProvider
}

// Shutdown flushes pending spans, it is a no-op when tracing was never enabled.
func (t Tracing) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}

// SetupTracing installs an OTLP/HTTP tracer provider as the global provider.
// When no endpoint is configured the global no-op provider is left in place.
func SetupTracing(ctx context.Context, serviceName string, config OtlpConfig) (Tracing, error) {
	if config.HttpEndpoint == "" {
		return Tracing{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*3)
	defer cancel()

	exporter, err := otlptracehttp.New(
		ctx,
		otlptracehttp.WithEndpointURL(config.HttpEndpoint),
		otlptracehttp.WithHeaders(config.Headers),
	)
	if err != nil {
		return Tracing{}, err
	}

	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return Tracing{}, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(r),
	)
	otel.SetTracerProvider(provider)

	return Tracing{provider: provider}, nil
}
