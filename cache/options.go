package cache

import (
	"context"

	"github.com/sirupsen/logrus"
)

// EvictReason explains why an entry was removed.
type EvictReason int

const (
	// EvictCapacity: removed from the LRU end to satisfy the capacity limit.
	EvictCapacity EvictReason = iota
	// EvictExpired: an expired entry whose slot was rewritten for a new key.
	EvictExpired
)

func (r EvictReason) String() string {
	switch r {
	case EvictExpired:
		return "expired"
	default:
		return "capacity"
	}
}

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	// Size reports the cache-wide entry count and capacity after a change,
	// summed over all shards.
	Size(entries, capacity int)
}

// Clock provides time in UnixNano; useful for deterministic tests.
type Clock interface{ NowUnixNano() int64 }

// Options configures the cache behavior. Zero values are safe;
// sane defaults are applied in New():
//   - Capacity < 0  => 0 (every insertion is evicted immediately)
//   - DefaultTTL    => Never
//   - Shards <= 1   => a single shard with one lock and global LRU order
//   - nil Metrics   => NoopMetrics
//   - nil Logger    => discard
type Options[K comparable, V any] struct {
	// Capacity is the entry count limit.
	Capacity int

	// DefaultTTL applies to Set, SetIfAbsent and GetOrLoad.
	DefaultTTL TTL

	// Shards splits the cache into independently locked partitions.
	// LRU order and capacity are then per shard; the total capacity is
	// distributed exactly across shards. Values above one are rounded up
	// to a power of two; a negative value picks a count from GOMAXPROCS.
	Shards int

	// Loader fetches a value on cache miss. Used by GetOrLoad.
	Loader func(ctx context.Context, k K) (V, error)

	// OnEvict is called on eviction under the shard lock; keep callbacks
	// lightweight and never call back into the cache.
	OnEvict func(k K, v V, reason EvictReason)
	Metrics Metrics

	// Logger receives debug records for capacity changes and clears, and
	// warnings for loader failures.
	Logger logrus.FieldLogger

	// Clock allows overriding time source (tests). Nil => time.Now().
	Clock Clock
}
