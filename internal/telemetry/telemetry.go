// Package telemetry exports signup spans over OTLP when an endpoint is
// configured through the environment.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config selects the trace exporter. With no endpoint, tracing stays on the
// global no-op provider.
type Config struct {
	Endpoint    string            `env:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"`
	Headers     map[string]string `env:"OTEL_EXPORTER_OTLP_HEADERS" envKeyValSeparator:"="`
	ServiceName string            `env:"OTEL_SERVICE_NAME" envDefault:"sattelclub"`
}

// Enabled reports whether spans will be exported.
func (c Config) Enabled() bool { return c.Endpoint != "" }

// ConfigFromEnv reads Config from the process environment.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse telemetry env: %w", err)
	}
	return cfg, nil
}

// Telemetry owns the installed tracer provider.
type Telemetry struct {
	provider *sdktrace.TracerProvider
}

// Shutdown flushes pending spans. Safe on a zero Telemetry.
func (t Telemetry) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}

// Setup installs a batching OTLP/HTTP tracer provider as the global provider.
func Setup(ctx context.Context, cfg Config) (Telemetry, error) {
	if !cfg.Enabled() {
		return Telemetry{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	exporter, err := otlptracehttp.New(
		ctx,
		otlptracehttp.WithEndpointURL(cfg.Endpoint),
		otlptracehttp.WithHeaders(cfg.Headers),
	)
	if err != nil {
		return Telemetry{}, fmt.Errorf("create trace exporter: %w", err)
	}

	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
		),
	)
	if err != nil {
		return Telemetry{}, fmt.Errorf("create resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(r),
	)
	otel.SetTracerProvider(provider)
	return Telemetry{provider: provider}, nil
}
