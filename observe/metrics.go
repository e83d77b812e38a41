package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric instrument names.
const (
	MetricComputeTotal    = "l1fee.compute.total"
	MetricComputeErrors   = "l1fee.compute.errors"
	MetricComputeDuration = "l1fee.compute.duration_ms"
	MetricCacheEvents     = "l1fee.cache.events"
)

// Metrics records computation and cache metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordComputation records one finished computation.
	RecordComputation(ctx context.Context, meta ComputationMeta, duration time.Duration, err error)

	// RecordCacheEvent counts a cache lifecycle event such as "hit" or "evict".
	RecordCacheEvent(ctx context.Context, namespace, event string)
}

type metricsImpl struct {
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
	cacheEvents  metric.Int64Counter
}

// NewMetrics creates the computation instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		MetricComputeTotal,
		metric.WithDescription("Total number of computations run"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		MetricComputeErrors,
		metric.WithDescription("Total number of failed computations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		MetricComputeDuration,
		metric.WithDescription("Computation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	cacheEvents, err := meter.Int64Counter(
		MetricCacheEvents,
		metric.WithDescription("Cache lifecycle events by kind"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:   totalCount,
		errorCount:   errorCount,
		durationHist: durationHist,
		cacheEvents:  cacheEvents,
	}, nil
}

func (m *metricsImpl) RecordComputation(ctx context.Context, meta ComputationMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(meta.attributes()...)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration)/float64(time.Millisecond), opt)
}

func (m *metricsImpl) RecordCacheEvent(ctx context.Context, namespace, event string) {
	m.cacheEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("computation.namespace", namespace),
		attribute.String("event", event),
	))
}

type noopMetrics struct{}

func (noopMetrics) RecordComputation(context.Context, ComputationMeta, time.Duration, error) {}
func (noopMetrics) RecordCacheEvent(context.Context, string, string)                         {}
