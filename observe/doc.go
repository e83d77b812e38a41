// Package observe provides observability primitives for cached computations.
//
// It wires OpenTelemetry tracing and metrics plus a JSON structured logger.
// Middleware wraps a single computation with a span, duration and error
// metrics, and a log line; Run is its typed entry point. Exporters are chosen
// by name through the exporters subpackage.
package observe
