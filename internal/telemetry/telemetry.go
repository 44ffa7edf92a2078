package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ServiceName identifies this service in traces and middleware.
const ServiceName = "revcast"

// Config holds configuration for OpenTelemetry tracing
type Config struct {
	Enabled        bool
	Endpoint       string
	ServiceVersion string
	Environment    string
	SampleRate     float64
}

// Provider owns the tracer provider and its exporter.
type Provider struct {
	provider *sdktrace.TracerProvider
	shutdown func(context.Context) error
}

// Init sets up the global tracer provider. With an OTLP endpoint configured
// spans ship over HTTP; without one they go to a stdout exporter so traces
// are still visible in development. When tracing is disabled the global
// provider is a no-op.
func Init(ctx context.Context, config Config) (*Provider, error) {
	if !config.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		return &Provider{shutdown: func(ctx context.Context) error { return nil }}, nil
	}

	var exporter sdktrace.SpanExporter
	var err error
	if config.Endpoint != "" {
		exporter, err = otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(config.Endpoint),
			otlptracehttp.WithInsecure(),
		)
	} else {
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	// Create resource with service information
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
			semconv.DeploymentEnvironment(config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	sampleRate := config.SampleRate
	if sampleRate <= 0 || sampleRate > 1 {
		sampleRate = 1
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRate))),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Provider{provider: provider, shutdown: provider.Shutdown}, nil
}

// Shutdown flushes pending spans and stops the exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.shutdown != nil {
		return p.shutdown(ctx)
	}
	return nil
}

// Tracer returns a named tracer from the global provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
