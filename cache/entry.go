package cache

// nilSlot marks the absence of a slot (empty list ends, unlinked neighbours).
const nilSlot int32 = -1

// entry is one slot of the shard arena. Slots are addressed by their index
// in the arena and linked into the recency list through prev/next handles
// (head is MRU, tail is LRU).
type entry[K comparable, V any] struct {
	key K
	val V

	ttl TTL
	// Last access in UnixNano; the TTL is measured from here.
	access int64

	prev int32
	next int32
}

// expired reports whether the entry is expired at now (UnixNano).
func (e *entry[K, V]) expired(now int64) bool { return e.ttl.expired(e.access, now) }

// touch records an access at now.
func (e *entry[K, V]) touch(now int64) { e.access = now }
