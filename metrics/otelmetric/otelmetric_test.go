package otelmetric

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/IvanBrykalov/ttlru/cache"
)

func newTestMeterProvider() (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)), reader
}

func collect(t *testing.T, r *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, r.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumValue(t *testing.T, agg metricdata.Aggregation, want ...attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := agg.(metricdata.Sum[int64])
	require.True(t, ok, "expected Sum[int64], got %T", agg)
	set := attribute.NewSet(want...)
	for _, dp := range sum.DataPoints {
		if dp.Attributes.Equals(&set) {
			return dp.Value
		}
	}
	return 0
}

func TestAdapter_RecordsCacheTraffic(t *testing.T) {
	mp, reader := newTestMeterProvider()
	defer func() { _ = mp.Shutdown(context.Background()) }()

	m, err := New(WithMeterProvider(mp), WithAttributes(attribute.String("cache", "unit")))
	require.NoError(t, err)

	c := cache.New[int, int](cache.Options[int, int]{Capacity: 1, Metrics: m})
	c.Set(1, 1)
	c.Get(1)
	c.Get(2)
	c.Set(2, 2) // evicts 1

	data := collect(t, reader)
	tag := attribute.String("cache", "unit")
	assert.Equal(t, int64(1), sumValue(t, data["cache.hits"], tag))
	assert.Equal(t, int64(1), sumValue(t, data["cache.misses"], tag))
	assert.Equal(t, int64(1), sumValue(t, data["cache.evictions"], attribute.String("reason", "capacity"), tag))

	gauge, ok := data["cache.entries"].(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(1), gauge.DataPoints[0].Value)
}

func TestNew_DefaultsToGlobalProvider(t *testing.T) {
	m, err := New(WithMeterProvider(nil), WithInstrumentationName(""))
	require.NoError(t, err)
	require.NotNil(t, m)

	// The global no-op provider must accept measurements silently.
	m.Hit()
	m.Evict(cache.EvictExpired)
	m.Evict(cache.EvictReason(42))
	m.Size(1, 2)
}
