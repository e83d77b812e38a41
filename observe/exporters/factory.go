// Package exporters builds OpenTelemetry exporters by name.
package exporters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var (
	// ErrUnknownExporter is returned for names missing from the registry.
	ErrUnknownExporter = errors.New("exporters: unknown exporter")
	// ErrEndpointNotConfigured is returned when a network exporter has no
	// endpoint in the environment.
	ErrEndpointNotConfigured = errors.New("exporters: endpoint not configured")
)

type (
	spanFactory   func(context.Context) (sdktrace.SpanExporter, error)
	readerFactory func(context.Context) (sdkmetric.Reader, error)
)

// The empty name behaves like "none".
var (
	spanExporters = map[string]spanFactory{
		"stdout": func(context.Context) (sdktrace.SpanExporter, error) {
			return stdouttrace.New(stdouttrace.WithWriter(os.Stdout))
		},
		"otlp": func(ctx context.Context) (sdktrace.SpanExporter, error) {
			if err := requireEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"); err != nil {
				return nil, err
			}
			return otlptracegrpc.New(ctx)
		},
		// Jaeger ingests OTLP natively.
		"jaeger": func(ctx context.Context) (sdktrace.SpanExporter, error) {
			endpoint := os.Getenv("OTEL_EXPORTER_JAEGER_ENDPOINT")
			if endpoint == "" {
				return nil, fmt.Errorf("%w: set OTEL_EXPORTER_JAEGER_ENDPOINT", ErrEndpointNotConfigured)
			}
			return otlptracegrpc.New(ctx, otlptracegrpc.WithEndpointURL(endpoint))
		},
		"none": func(context.Context) (sdktrace.SpanExporter, error) {
			return stdouttrace.New(stdouttrace.WithWriter(io.Discard))
		},
	}

	metricReaders = map[string]readerFactory{
		"stdout": func(context.Context) (sdkmetric.Reader, error) {
			exp, err := stdoutmetric.New(stdoutmetric.WithWriter(os.Stdout))
			if err != nil {
				return nil, err
			}
			return sdkmetric.NewPeriodicReader(exp), nil
		},
		"otlp": func(ctx context.Context) (sdkmetric.Reader, error) {
			if err := requireEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"); err != nil {
				return nil, err
			}
			exp, err := otlpmetricgrpc.New(ctx)
			if err != nil {
				return nil, err
			}
			return sdkmetric.NewPeriodicReader(exp), nil
		},
		// Registers with the default prometheus registry, which /metrics serves.
		"prometheus": func(context.Context) (sdkmetric.Reader, error) {
			return prometheus.New()
		},
		"none": func(context.Context) (sdkmetric.Reader, error) {
			return sdkmetric.NewManualReader(), nil
		},
	}
)

func canonical(name string) string {
	if name == "" {
		return "none"
	}
	return name
}

// IsTracingExporter reports whether name is a supported tracing exporter.
func IsTracingExporter(name string) bool {
	_, ok := spanExporters[canonical(name)]
	return ok
}

// IsMetricsExporter reports whether name is a supported metrics exporter.
func IsMetricsExporter(name string) bool {
	_, ok := metricReaders[canonical(name)]
	return ok
}

func requireEnv(keys ...string) error {
	for _, k := range keys {
		if os.Getenv(k) != "" {
			return nil
		}
	}
	return fmt.Errorf("%w: set one of %v", ErrEndpointNotConfigured, keys)
}

// NewTracingExporter creates the span exporter called name: stdout, otlp,
// jaeger or none.
func NewTracingExporter(ctx context.Context, name string) (sdktrace.SpanExporter, error) {
	factory, ok := spanExporters[canonical(name)]
	if !ok {
		return nil, fmt.Errorf("%w: tracing %q", ErrUnknownExporter, name)
	}
	exp, err := factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("tracing exporter %s: %w", canonical(name), err)
	}
	return exp, nil
}

// NewMetricsReader creates the metrics reader called name: stdout, otlp,
// prometheus or none.
func NewMetricsReader(ctx context.Context, name string) (sdkmetric.Reader, error) {
	factory, ok := metricReaders[canonical(name)]
	if !ok {
		return nil, fmt.Errorf("%w: metrics %q", ErrUnknownExporter, name)
	}
	reader, err := factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("metrics reader %s: %w", canonical(name), err)
	}
	return reader, nil
}
