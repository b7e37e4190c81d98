// Package cache provides a generic, thread-safe, in-memory cache with
// least-recently-used eviction, per-entry TTL and reuse of expired slots.
//
// Design
//
//   - Storage: entries live in an arena of slots addressed by integer
//     handles. A map[K]handle is the key index and the slots are linked
//     into an MRU↔LRU list through their handles. Every mutation that
//     touches both the index and the list happens inside one store method,
//     so the two never disagree. All operations are O(1) expected.
//
//   - Concurrency: one RWMutex guards the index, the list and the entry
//     count as a unit. Get takes the write lock because a hit promotes the
//     entry; Peek and the size accessors take the read lock. Options.Shards
//     splits the cache into independently locked partitions when contention
//     matters more than global LRU order.
//
//   - TTL: a TTL is Never, Expired or For(d) (one-second resolution),
//     measured from the last access; a Get hit refreshes it. Expiry is lazy:
//     an expired entry is a miss for Get/Peek/IsExist but stays resident.
//
//   - Slot reuse: when a new key is inserted and the LRU entry has already
//     expired, that slot is rewritten in place for the new key instead of
//     allocating a new slot and evicting later.
//
//   - Capacity: the entry count limit. Inserting past it evicts from the LRU
//     end, expired or not. SetCapacity may shrink the cache at any time.
//
//   - GetOrLoad coalesces concurrent loads for the same key (singleflight).
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict/Size signals; see
//     packages metrics/prom and metrics/otel for exporters.
//
// Basic usage
//
//	c := cache.New[string, int](cache.Options[string, int]{
//	    Capacity:   1024,
//	    DefaultTTL: cache.For(time.Minute),
//	})
//	c.Set("a", 1)
//	if v, ok := c.Get("a"); ok {
//	    _ = v
//	}
//	c.SetWithTTL("session", 2, cache.For(30*time.Second))
//	c.SetExpired("a") // invalidate without deleting; the slot can be reused
//
// Signed-duration TTLs
//
// TTLOf maps the classic signed convention onto TTL values:
// a negative duration never expires, zero is already expired and a positive
// duration is a finite lifetime.
//
//	c.SetWithTTL("k", v, cache.TTLOf(-1)) // never expires
package cache
