package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumValue(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	found := findMetric(rm, name)
	if found == nil {
		return 0
	}
	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s: expected Sum[int64], got %T", name, found.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetrics_RecordComputation(t *testing.T) {
	m, reader := newTestMetrics(t)
	meta := ComputationMeta{Namespace: "optimismL1SecurityFee", Version: 1, ChainID: 10}
	ctx := context.Background()

	m.RecordComputation(ctx, meta, 40*time.Millisecond, nil)
	m.RecordComputation(ctx, meta, 60*time.Millisecond, errors.New("rpc down"))

	rm := collect(t, reader)
	if got := sumValue(t, rm, MetricComputeTotal); got != 2 {
		t.Errorf("%s = %d, want 2", MetricComputeTotal, got)
	}
	if got := sumValue(t, rm, MetricComputeErrors); got != 1 {
		t.Errorf("%s = %d, want 1", MetricComputeErrors, got)
	}

	found := findMetric(rm, MetricComputeDuration)
	if found == nil {
		t.Fatalf("%s not found", MetricComputeDuration)
	}
	hist, ok := found.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected Histogram[float64], got %T", found.Data)
	}
	if len(hist.DataPoints) != 1 {
		t.Fatalf("histogram points = %d, want 1", len(hist.DataPoints))
	}
	dp := hist.DataPoints[0]
	if dp.Count != 2 || dp.Sum != 100 {
		t.Errorf("count/sum = %d/%v, want 2/100", dp.Count, dp.Sum)
	}
	if v, ok := dp.Attributes.Value(attribute.Key("chain.id")); !ok || v.AsString() != "10" {
		t.Errorf("chain.id attribute = %v", v)
	}
}

func TestMetrics_SuccessLeavesErrorsAtZero(t *testing.T) {
	m, reader := newTestMetrics(t)
	m.RecordComputation(context.Background(), ComputationMeta{Namespace: "n"}, time.Millisecond, nil)

	if got := sumValue(t, collect(t, reader), MetricComputeErrors); got != 0 {
		t.Errorf("errors = %d, want 0", got)
	}
}

func TestMetrics_RecordCacheEvent(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()
	m.RecordCacheEvent(ctx, "n", "hit")
	m.RecordCacheEvent(ctx, "n", "hit")
	m.RecordCacheEvent(ctx, "n", "miss")

	found := findMetric(collect(t, reader), MetricCacheEvents)
	if found == nil {
		t.Fatalf("%s not found", MetricCacheEvents)
	}
	sum := found.Data.(metricdata.Sum[int64])
	byEvent := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value("event")
		byEvent[v.AsString()] = dp.Value
	}
	if byEvent["hit"] != 2 || byEvent["miss"] != 1 {
		t.Errorf("events = %v, want hit=2 miss=1", byEvent)
	}
}
