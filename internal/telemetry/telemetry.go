// Package telemetry configures OpenTelemetry tracing for completion calls
// and issues request IDs for inbound updates.
package telemetry

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceName = "codered-bot"

	// TracerName is the instrumentation scope used by every span in the bot.
	TracerName = "github.com/garyellow/codered-bot-go"
)

// Config holds the configuration for telemetry
type Config struct {
	// Endpoint is the OTLP/HTTP collector URL. Empty disables export.
	Endpoint string
	// Version is reported as service.version.
	Version string
}

// Provider owns the tracer provider for the process lifetime.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// NewProvider creates a telemetry provider. Without an endpoint the global
// no-op tracer stays in place and Shutdown does nothing.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.Endpoint == "" {
		return &Provider{}, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.Endpoint))
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	res := resource.NewSchemaless(
		attribute.String("service.name", serviceName),
		attribute.String("service.version", version),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return &Provider{tp: tp}, nil
}

// Enabled reports whether spans are exported.
func (p *Provider) Enabled() bool {
	return p != nil && p.tp != nil
}

// Shutdown flushes pending spans and stops the exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}
	return p.tp.Shutdown(ctx)
}

// Tracer returns the bot's tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// NewRequestID generates an ID for one inbound update.
func NewRequestID() string {
	return uuid.New().String()
}
