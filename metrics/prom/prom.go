// Package prom exports cache metrics to Prometheus.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/IvanBrykalov/ttlru/cache"
)

// Adapter implements cache.Metrics and exports Prometheus counters/gauges.
// Safe for concurrent use; all Prometheus metric types are goroutine-safe.
// The entries and capacity gauges carry cache-wide totals.
type Adapter struct {
	hits     prometheus.Counter
	misses   prometheus.Counter
	evicts   *prometheus.CounterVec
	entries  prometheus.Gauge
	capacity prometheus.Gauge
}

// New constructs a Prometheus metrics adapter.
//   - reg:          registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	opts := func(name, help string) prometheus.Opts {
		return prometheus.Opts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        name,
			Help:        help,
			ConstLabels: constLabels,
		}
	}
	a := &Adapter{
		hits:   prometheus.NewCounter(prometheus.CounterOpts(opts("hits_total", "Cache hits"))),
		misses: prometheus.NewCounter(prometheus.CounterOpts(opts("misses_total", "Cache misses (absent or expired)"))),
		evicts: prometheus.NewCounterVec(
			prometheus.CounterOpts(opts("evictions_total", "Cache evictions by reason")),
			[]string{"reason"},
		),
		entries:  prometheus.NewGauge(prometheus.GaugeOpts(opts("entries", "Resident entries, expired ones included"))),
		capacity: prometheus.NewGauge(prometheus.GaugeOpts(opts("capacity", "Entry capacity"))),
	}
	reg.MustRegister(a.hits, a.misses, a.evicts, a.entries, a.capacity)
	return a
}

// Hit increments the hit counter.
func (a *Adapter) Hit() { a.hits.Inc() }

// Miss increments the miss counter.
func (a *Adapter) Miss() { a.misses.Inc() }

// Evict increments the eviction counter with a reason label.
func (a *Adapter) Evict(r cache.EvictReason) {
	a.evicts.WithLabelValues(r.String()).Inc()
}

// Size updates the entry and capacity gauges with cache-wide totals.
func (a *Adapter) Size(entries, capacity int) {
	a.entries.Set(float64(entries))
	a.capacity.Set(float64(capacity))
}

// Compile-time check: ensure Adapter implements cache.Metrics.
var _ cache.Metrics = (*Adapter)(nil)
