// Package telemetry installs an OTLP/HTTP tracer provider so the spans
// emitted by statechart.TracingObserver leave the process.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

const (
	defaultServiceVersion = "1.0.0"
	defaultTimeout        = 5 * time.Second

	// EndpointEnv is consulted when Config.Endpoint is empty.
	EndpointEnv = "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"
)

// ErrNilConfig is returned by Initialize when given a nil config.
var ErrNilConfig = errors.New("telemetry config is nil")

var (
	mu             sync.Mutex                //nolint:gochecknoglobals
	tracerProvider *sdktrace.TracerProvider //nolint:gochecknoglobals
)

// Config holds the OpenTelemetry configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	Enabled        bool
	Timeout        time.Duration
}

// DefaultConfig returns a disabled config for serviceName. The endpoint
// defaults to $OTEL_EXPORTER_OTLP_TRACES_ENDPOINT.
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName:    serviceName,
		ServiceVersion: defaultServiceVersion,
		Environment:    "local",
		Endpoint:       os.Getenv(EndpointEnv),
		Timeout:        defaultTimeout,
	}
}

// Initialize sets up OpenTelemetry tracing with the given configuration.
// A disabled config, or one without an endpoint, leaves the global no-op
// provider in place.
func Initialize(ctx context.Context, config *Config) error {
	if config == nil {
		return ErrNilConfig
	}

	if !config.Enabled {
		slog.Debug("OpenTelemetry tracing is disabled")

		return nil
	}

	if config.Endpoint == "" {
		slog.Warn("OpenTelemetry endpoint not configured, tracing will be disabled")

		return nil
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String(config.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(config.Endpoint),
		otlptracehttp.WithTimeout(timeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	mu.Lock()
	tracerProvider = provider
	mu.Unlock()

	otel.SetTracerProvider(provider)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	slog.Info("OpenTelemetry tracing initialized",
		"service", config.ServiceName,
		"version", config.ServiceVersion,
		"environment", config.Environment,
		"endpoint", config.Endpoint,
	)

	return nil
}

// Shutdown flushes and stops the tracer provider installed by Initialize.
func Shutdown(ctx context.Context) error {
	mu.Lock()
	provider := tracerProvider
	tracerProvider = nil
	mu.Unlock()

	if provider == nil {
		return nil
	}

	slog.Debug("Shutting down OpenTelemetry tracer provider")

	return provider.Shutdown(ctx)
}
