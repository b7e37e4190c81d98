package cache

import "context"

// Cache is an in-memory key/value cache with LRU eviction and per-entry TTL.
// All methods are safe for concurrent use by multiple goroutines.
//
// Looking up an absent or expired key is a normal negative result, never an
// error. Expired entries stay resident until they are overwritten, reused by
// a new key, deleted, or evicted for capacity.
type Cache[K comparable, V any] interface {
	// Get returns the value for k. On hit the access time is refreshed
	// and the entry becomes most recently used.
	Get(k K) (V, bool)

	// Peek returns the value for k without changing access time or LRU order.
	Peek(k K) (V, bool)

	// IsExist reports whether k is present and not expired.
	IsExist(k K) bool

	// Set inserts or overwrites k→v with Options.DefaultTTL.
	Set(k K, v V)

	// SetWithTTL inserts or overwrites k→v with a per-key TTL.
	// Overwriting an existing key (even an expired one) never changes Size.
	SetWithTTL(k K, v V, ttl TTL)

	// SetIfAbsent behaves as Set unless k holds a live entry,
	// in which case the entry is left untouched.
	SetIfAbsent(k K, v V)

	// SetExpired marks k as expired without removing it and reports
	// whether k existed.
	SetExpired(k K) bool

	// Delete removes k and reports whether it existed.
	Delete(k K) bool

	// Clear drops all entries.
	Clear()

	// Length returns the number of resident entries (expired ones included).
	Length() int

	// Size returns the occupied capacity. Every entry weighs one, so Size
	// equals Length.
	Size() int

	// Capacity returns the entry limit.
	Capacity() int

	// FreeSize returns Capacity() - Size().
	FreeSize() int

	// SetCapacity changes the entry limit (negative means zero) and evicts
	// least recently used entries until the cache fits.
	SetCapacity(n int)

	// GetOrLoad returns the value for k, loading it via Options.Loader on miss.
	// Concurrent loads for the same key are coalesced (singleflight).
	// If no Loader was configured, returns ErrNoLoader.
	GetOrLoad(ctx context.Context, k K) (V, error)

	// Stats returns a snapshot of the cache counters.
	Stats() Stats

	// Close marks the cache closed: reads miss and writes (Clear and
	// SetCapacity included) are ignored.
	Close() error
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      uint64 // Get hits
	Misses    uint64 // Get misses (absent or expired)
	Evictions uint64 // entries evicted for capacity
	Reuses    uint64 // expired slots rewritten for a new key
}

// HitRatio returns Hits / (Hits + Misses), or 0 without lookups.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
