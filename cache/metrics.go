package cache

import "sync/atomic"

// NoopMetrics is a drop-in Metrics implementation that does nothing.
// It is safe for concurrent use and intended as the default when
// no observability backend is configured.
type NoopMetrics struct{}

func (NoopMetrics) Hit()              {}
func (NoopMetrics) Miss()             {}
func (NoopMetrics) Evict(EvictReason) {}
func (NoopMetrics) Size(_, _ int)     {}

// Ensure NoopMetrics implements the Metrics interface at compile time.
var _ Metrics = NoopMetrics{}

// sizeTotals keeps the cache-wide entry count and capacity. Shards push
// deltas under their own locks; under concurrent writes to different
// shards a report can briefly lag until the next change.
type sizeTotals struct {
	entries  atomic.Int64
	capacity atomic.Int64
	m        Metrics
}

func (t *sizeTotals) add(dEntries, dCapacity int) {
	e := t.entries.Add(int64(dEntries))
	c := t.capacity.Add(int64(dCapacity))
	t.m.Size(int(e), int(c))
}
