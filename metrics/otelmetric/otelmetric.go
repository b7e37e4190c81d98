// Package otelmetric exports cache metrics through an OpenTelemetry MeterProvider.
package otelmetric

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/IvanBrykalov/ttlru/cache"
)

const defaultInstrumentationName = "github.com/IvanBrykalov/ttlru"

type config struct {
	name     string
	provider metric.MeterProvider
	attrs    []attribute.KeyValue
}

// Option configures the adapter.
type Option func(*config)

// WithMeterProvider sets the MeterProvider; nil keeps the global one.
func WithMeterProvider(p metric.MeterProvider) Option {
	return func(c *config) {
		if p != nil {
			c.provider = p
		}
	}
}

// WithInstrumentationName overrides the meter name.
func WithInstrumentationName(name string) Option {
	return func(c *config) {
		if name != "" {
			c.name = name
		}
	}
}

// WithAttributes adds static attributes to every measurement,
// e.g. attribute.String("cache", "sessions").
func WithAttributes(attrs ...attribute.KeyValue) Option {
	return func(c *config) { c.attrs = append(c.attrs, attrs...) }
}

// Adapter implements cache.Metrics with OpenTelemetry instruments.
type Adapter struct {
	hits     metric.Int64Counter
	misses   metric.Int64Counter
	evicts   metric.Int64Counter
	entries  metric.Int64Gauge
	capacity metric.Int64Gauge

	base  metric.MeasurementOption
	byWhy [2]metric.MeasurementOption // indexed by cache.EvictReason
}

// New creates the instruments on the configured meter.
func New(opts ...Option) (*Adapter, error) {
	cfg := &config{
		name:     defaultInstrumentationName,
		provider: otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	meter := cfg.provider.Meter(cfg.name)

	a := &Adapter{base: metric.WithAttributes(cfg.attrs...)}
	var err error
	if a.hits, err = meter.Int64Counter("cache.hits", metric.WithDescription("cache hits"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("otelmetric: create hits counter: %w", err)
	}
	if a.misses, err = meter.Int64Counter("cache.misses", metric.WithDescription("cache misses (absent or expired)"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("otelmetric: create misses counter: %w", err)
	}
	if a.evicts, err = meter.Int64Counter("cache.evictions", metric.WithDescription("cache evictions by reason"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("otelmetric: create evictions counter: %w", err)
	}
	if a.entries, err = meter.Int64Gauge("cache.entries", metric.WithDescription("resident entries, expired ones included")); err != nil {
		return nil, fmt.Errorf("otelmetric: create entries gauge: %w", err)
	}
	if a.capacity, err = meter.Int64Gauge("cache.capacity", metric.WithDescription("entry capacity")); err != nil {
		return nil, fmt.Errorf("otelmetric: create capacity gauge: %w", err)
	}

	for _, r := range []cache.EvictReason{cache.EvictCapacity, cache.EvictExpired} {
		attrs := append([]attribute.KeyValue{attribute.String("reason", r.String())}, cfg.attrs...)
		a.byWhy[r] = metric.WithAttributes(attrs...)
	}
	return a, nil
}

// Hit records a hit.
func (a *Adapter) Hit() { a.hits.Add(context.Background(), 1, a.base) }

// Miss records a miss.
func (a *Adapter) Miss() { a.misses.Add(context.Background(), 1, a.base) }

// Evict records an eviction with its reason.
func (a *Adapter) Evict(r cache.EvictReason) {
	opt := a.base
	if int(r) >= 0 && int(r) < len(a.byWhy) {
		opt = a.byWhy[r]
	}
	a.evicts.Add(context.Background(), 1, opt)
}

// Size records the cache-wide entry count and capacity.
func (a *Adapter) Size(entries, capacity int) {
	ctx := context.Background()
	a.entries.Record(ctx, int64(entries), a.base)
	a.capacity.Record(ctx, int64(capacity), a.base)
}

var _ cache.Metrics = (*Adapter)(nil)
