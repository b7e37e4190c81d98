package cache

// store is the ordering substrate of a shard: an arena of slots linked into
// a recency list, plus the key index pointing into the arena.
//
// The index and the list are never updated separately: every method below
// that touches one also touches the other before returning, so the two stay
// in one-to-one correspondence. Callers must hold the shard lock.
type store[K comparable, V any] struct {
	slots []entry[K, V]
	free  []int32 // recycled slot handles
	index map[K]int32

	head int32 // MRU
	tail int32 // LRU
	len  int
}

func newStore[K comparable, V any](capacity int) store[K, V] {
	hint := capacity
	if hint > 1<<16 {
		hint = 1 << 16
	}
	return store[K, V]{
		slots: make([]entry[K, V], 0, hint),
		index: make(map[K]int32, hint),
		head:  nilSlot,
		tail:  nilSlot,
	}
}

// lookup returns the slot handle for k.
func (s *store[K, V]) lookup(k K) (int32, bool) {
	i, ok := s.index[k]
	return i, ok
}

// at returns the slot behind a live handle.
func (s *store[K, V]) at(i int32) *entry[K, V] { return &s.slots[i] }

// back returns the LRU handle, or nilSlot when empty.
func (s *store[K, V]) back() int32 { return s.tail }

// pushFront stores a new record at MRU and indexes it under k.
func (s *store[K, V]) pushFront(k K, v V, ttl TTL, now int64) int32 {
	var i int32
	if n := len(s.free); n > 0 {
		i = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		s.slots = append(s.slots, entry[K, V]{})
		i = int32(len(s.slots) - 1)
	}
	e := &s.slots[i]
	e.key, e.val, e.ttl, e.access = k, v, ttl, now
	s.linkFront(i)
	s.index[k] = i
	s.len++
	return i
}

// moveToFront promotes a live slot to MRU in O(1).
func (s *store[K, V]) moveToFront(i int32) {
	if i == s.head {
		return
	}
	s.unlink(i)
	s.linkFront(i)
}

// removeBack drops the LRU record and returns it.
func (s *store[K, V]) removeBack() (entry[K, V], bool) {
	if s.tail == nilSlot {
		return entry[K, V]{}, false
	}
	return s.remove(s.tail), true
}

// remove drops a live slot from both the list and the index and returns the
// record it held.
func (s *store[K, V]) remove(i int32) entry[K, V] {
	s.unlink(i)
	old := s.slots[i]
	delete(s.index, old.key)
	s.slots[i] = entry[K, V]{prev: nilSlot, next: nilSlot}
	s.free = append(s.free, i)
	s.len--
	return old
}

// rekey rewrites a live slot in place under a new key and promotes it to MRU.
// The old key leaves the index and the new key enters it in the same step;
// the previous record is returned.
func (s *store[K, V]) rekey(i int32, k K, v V, ttl TTL, now int64) entry[K, V] {
	e := &s.slots[i]
	old := *e
	delete(s.index, old.key)
	e.key, e.val, e.ttl, e.access = k, v, ttl, now
	s.index[k] = i
	s.moveToFront(i)
	return old
}

// reset drops every record, keeping allocated memory for reuse.
func (s *store[K, V]) reset() {
	clear(s.slots)
	s.slots = s.slots[:0]
	s.free = s.free[:0]
	clear(s.index)
	s.head, s.tail = nilSlot, nilSlot
	s.len = 0
}

// ---- list plumbing ----

func (s *store[K, V]) linkFront(i int32) {
	e := &s.slots[i]
	e.prev = nilSlot
	e.next = s.head
	if s.head != nilSlot {
		s.slots[s.head].prev = i
	}
	s.head = i
	if s.tail == nilSlot {
		s.tail = i
	}
}

func (s *store[K, V]) unlink(i int32) {
	e := &s.slots[i]
	if e.prev != nilSlot {
		s.slots[e.prev].next = e.next
	} else {
		s.head = e.next
	}
	if e.next != nilSlot {
		s.slots[e.next].prev = e.prev
	} else {
		s.tail = e.prev
	}
	e.prev, e.next = nilSlot, nilSlot
}
