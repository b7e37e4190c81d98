package cache

import (
	"sync"
	"time"

	"github.com/IvanBrykalov/ttlru/internal/util"
)

// shard is an independent partition of the cache: one lock guarding one
// store (key index + recency list) together with its capacity.
//
// Get and every mutator take the write lock, since a hit promotes the entry
// and refreshes its access time. Peek and the pure accessors take the read lock.
type shard[K comparable, V any] struct {
	// ---- guarded by mu ----
	mu  sync.RWMutex
	st  store[K, V]
	cap int

	// last counts pushed into totals
	reportedLen int
	reportedCap int

	opt    *Options[K, V]
	totals *sizeTotals

	// ---- hot counters (separate cache lines to avoid false sharing) ----
	_      util.CacheLinePad
	hits   util.PaddedAtomicUint64
	misses util.PaddedAtomicUint64
	evicts util.PaddedAtomicUint64
	reuses util.PaddedAtomicUint64
}

// newShard initializes a shard with its capacity and the shared options.
// The shard's capacity is added to totals without reporting.
func newShard[K comparable, V any](capacity int, opt *Options[K, V], totals *sizeTotals) *shard[K, V] {
	if capacity < 0 {
		capacity = 0
	}
	totals.capacity.Add(int64(capacity))
	return &shard[K, V]{
		st:          newStore[K, V](capacity),
		cap:         capacity,
		reportedCap: capacity,
		opt:         opt,
		totals:      totals,
	}
}

// Get returns the value for k and promotes it to MRU.
// An expired entry is a miss but stays resident for later reuse.
func (s *shard[K, V]) Get(k K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	i, ok := s.st.lookup(k)
	if !ok || s.st.at(i).expired(now) {
		s.misses.Add(1)
		s.opt.Metrics.Miss()
		var zero V
		return zero, false
	}

	e := s.st.at(i)
	e.touch(now)
	s.st.moveToFront(i)
	s.hits.Add(1)
	s.opt.Metrics.Hit()
	return e.val, true
}

// Peek returns the value for k without touching access time or order.
func (s *shard[K, V]) Peek(k K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.st.lookup(k)
	if !ok || s.st.at(i).expired(s.now()) {
		var zero V
		return zero, false
	}
	return s.st.at(i).val, true
}

// Contains reports whether k is resident and not expired.
func (s *shard[K, V]) Contains(k K) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.st.lookup(k)
	return ok && !s.st.at(i).expired(s.now())
}

// Set inserts or overwrites k with the given TTL.
func (s *shard[K, V]) Set(k K, v V, ttl TTL) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(k, v, ttl, s.now())
}

// SetIfAbsent writes k only when it is absent or expired. A live entry is
// left exactly as it is: no write, no refresh, no promotion.
func (s *shard[K, V]) SetIfAbsent(k K, v V, ttl TTL) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if i, ok := s.st.lookup(k); ok && !s.st.at(i).expired(now) {
		return false
	}
	s.setLocked(k, v, ttl, now)
	return true
}

// SetExpired forces k's TTL to Expired without removing it.
func (s *shard[K, V]) SetExpired(k K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.st.lookup(k)
	if !ok {
		return false
	}
	s.st.at(i).ttl = Expired
	return true
}

// Delete removes k. Returns true if the entry existed (expired or not).
func (s *shard[K, V]) Delete(k K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.st.lookup(k)
	if !ok {
		return false
	}
	s.st.remove(i)
	s.sizeChangedLocked()
	return true
}

// Clear drops every entry.
func (s *shard[K, V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.st.reset()
	s.sizeChangedLocked()
}

// Len returns the number of resident entries, expired ones included.
func (s *shard[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.len
}

// Capacity returns the entry limit of this shard.
func (s *shard[K, V]) Capacity() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cap
}

// FreeSize returns capacity minus resident entries.
func (s *shard[K, V]) FreeSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cap - s.st.len
}

// SetCapacity changes the limit and evicts from the LRU end until it holds.
// Returns the number of evicted entries.
func (s *shard[K, V]) SetCapacity(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n < 0 {
		n = 0
	}
	s.cap = n
	return s.enforceCapacityLocked()
}

// -------------------- internals (mu held) --------------------

// setLocked is the write path shared by Set and SetIfAbsent:
//  1. an existing key (even expired) is overwritten in place and promoted;
//  2. a new key takes over the LRU slot if that entry has expired;
//  3. otherwise a new slot is pushed and capacity is enforced.
func (s *shard[K, V]) setLocked(k K, v V, ttl TTL, now int64) {
	if i, ok := s.st.lookup(k); ok {
		e := s.st.at(i)
		e.val = v
		e.ttl = ttl
		e.touch(now)
		s.st.moveToFront(i)
		return
	}

	if b := s.st.back(); b != nilSlot && s.st.at(b).expired(now) {
		old := s.st.rekey(b, k, v, ttl, now)
		s.reuses.Add(1)
		s.evicted(old.key, old.val, EvictExpired)
		return
	}

	s.st.pushFront(k, v, ttl, now)
	s.enforceCapacityLocked()
}

// enforceCapacityLocked evicts LRU entries, expired or not, until the
// entry count fits the capacity.
func (s *shard[K, V]) enforceCapacityLocked() int {
	n := 0
	for s.st.len > s.cap {
		old, ok := s.st.removeBack()
		if !ok {
			break
		}
		n++
		s.evicts.Add(1)
		s.evicted(old.key, old.val, EvictCapacity)
	}
	s.sizeChangedLocked()
	return n
}

// sizeChangedLocked pushes this shard's entry and capacity deltas into the
// cache-wide totals, which report to Metrics.Size.
func (s *shard[K, V]) sizeChangedLocked() {
	dl, dc := s.st.len-s.reportedLen, s.cap-s.reportedCap
	s.reportedLen, s.reportedCap = s.st.len, s.cap
	s.totals.add(dl, dc)
}

func (s *shard[K, V]) evicted(k K, v V, reason EvictReason) {
	s.opt.Metrics.Evict(reason)
	if cb := s.opt.OnEvict; cb != nil {
		cb(k, v, reason)
	}
}

func (s *shard[K, V]) now() int64 {
	if s.opt.Clock != nil {
		return s.opt.Clock.NowUnixNano()
	}
	return time.Now().UnixNano()
}

func (s *shard[K, V]) stats() Stats {
	return Stats{
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Evictions: s.evicts.Load(),
		Reuses:    s.reuses.Load(),
	}
}
