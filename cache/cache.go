package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/IvanBrykalov/ttlru/internal/singleflight"
	"github.com/IvanBrykalov/ttlru/internal/util"
)

var (
	// ErrNoLoader is returned by GetOrLoad when no Loader was configured in Options.
	ErrNoLoader = errors.New("cache: no Loader provided")
	// ErrClosed is returned by GetOrLoad after Close.
	ErrClosed = errors.New("cache: closed")
)

// cache routes keys to one or more shards.
// With a single shard every call is one critical section over the whole
// cache and LRU order is global.
type cache[K comparable, V any] struct {
	shards []*shard[K, V]
	hash   func(K) uint64
	closed atomic.Bool

	opt Options[K, V]
	log logrus.FieldLogger

	// singleflight group for coalescing concurrent loads in GetOrLoad.
	sf singleflight.Group[K, V]

	totals sizeTotals
}

// New constructs a cache with the provided Options.
// Defaults:
//   - Capacity < 0 -> 0
//   - nil Metrics  -> NoopMetrics
//   - nil Logger   -> discard
//   - Shards <= 1  -> one shard; Shards < 0 picks a count from GOMAXPROCS
func New[K comparable, V any](opt Options[K, V]) Cache[K, V] {
	if opt.Capacity < 0 {
		opt.Capacity = 0
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opt.Logger = l
	}

	sh := opt.Shards
	if sh < 0 {
		sh = util.ReasonableShardCount()
	} else {
		sh = util.ShardCount(sh)
	}
	opt.Shards = sh

	c := &cache[K, V]{
		shards: make([]*shard[K, V], sh),
		opt:    opt,
		log:    opt.Logger.WithField("component", "ttlru"),
	}
	c.totals.m = opt.Metrics
	if sh > 1 {
		c.hash = util.Hash[K]
	}
	for i, capacity := range util.SplitCapacity(opt.Capacity, sh) {
		c.shards[i] = newShard[K, V](capacity, &c.opt, &c.totals)
	}
	return c
}

// ---- Cache[K,V] implementation ----

func (c *cache[K, V]) Get(k K) (V, bool) {
	if c.closed.Load() {
		var zero V
		return zero, false
	}
	return c.getShard(k).Get(k)
}

func (c *cache[K, V]) Peek(k K) (V, bool) {
	if c.closed.Load() {
		var zero V
		return zero, false
	}
	return c.getShard(k).Peek(k)
}

func (c *cache[K, V]) IsExist(k K) bool {
	if c.closed.Load() {
		return false
	}
	return c.getShard(k).Contains(k)
}

func (c *cache[K, V]) Set(k K, v V) { c.SetWithTTL(k, v, c.opt.DefaultTTL) }

func (c *cache[K, V]) SetWithTTL(k K, v V, ttl TTL) {
	if c.closed.Load() {
		return
	}
	c.getShard(k).Set(k, v, ttl)
}

func (c *cache[K, V]) SetIfAbsent(k K, v V) {
	if c.closed.Load() {
		return
	}
	c.getShard(k).SetIfAbsent(k, v, c.opt.DefaultTTL)
}

func (c *cache[K, V]) SetExpired(k K) bool {
	if c.closed.Load() {
		return false
	}
	return c.getShard(k).SetExpired(k)
}

func (c *cache[K, V]) Delete(k K) bool {
	if c.closed.Load() {
		return false
	}
	return c.getShard(k).Delete(k)
}

// Clear drops all entries, one shard at a time.
func (c *cache[K, V]) Clear() {
	if c.closed.Load() {
		return
	}
	for _, s := range c.shards {
		s.Clear()
	}
	c.log.Debug("cache cleared")
}

func (c *cache[K, V]) Length() int {
	total := 0
	for _, s := range c.shards {
		total += s.Len()
	}
	return total
}

func (c *cache[K, V]) Size() int { return c.Length() }

func (c *cache[K, V]) Capacity() int {
	total := 0
	for _, s := range c.shards {
		total += s.Capacity()
	}
	return total
}

func (c *cache[K, V]) FreeSize() int {
	total := 0
	for _, s := range c.shards {
		total += s.FreeSize()
	}
	return total
}

// SetCapacity distributes n across shards and shrinks each one to fit.
func (c *cache[K, V]) SetCapacity(n int) {
	if c.closed.Load() {
		return
	}
	if n < 0 {
		n = 0
	}
	evicted := 0
	for i, capacity := range util.SplitCapacity(n, len(c.shards)) {
		evicted += c.shards[i].SetCapacity(capacity)
	}
	c.log.WithFields(logrus.Fields{
		"capacity": n,
		"evicted":  evicted,
	}).Debug("capacity changed")
}

// GetOrLoad returns the value for k; on miss it loads via Options.Loader,
// coalescing concurrent loads for the same key, and stores the result
// with the default TTL.
func (c *cache[K, V]) GetOrLoad(ctx context.Context, k K) (V, error) {
	var zero V
	if c.closed.Load() {
		return zero, ErrClosed
	}
	if v, ok := c.Get(k); ok {
		return v, nil
	}
	if c.opt.Loader == nil {
		return zero, ErrNoLoader
	}

	v, err, _ := c.sf.Do(ctx, k, func() (V, error) {
		// double-check after flight join
		if v, ok := c.Peek(k); ok {
			return v, nil
		}
		v, err := c.opt.Loader(ctx, k)
		if err != nil {
			c.log.WithError(err).Warn("loader failed")
			return v, fmt.Errorf("cache: load: %w", err)
		}
		c.Set(k, v)
		return v, nil
	})
	if err != nil {
		return zero, err
	}
	return v, nil
}

func (c *cache[K, V]) Stats() Stats {
	var st Stats
	for _, s := range c.shards {
		ss := s.stats()
		st.Hits += ss.Hits
		st.Misses += ss.Misses
		st.Evictions += ss.Evictions
		st.Reuses += ss.Reuses
	}
	return st
}

// Close marks the cache as closed. Reads miss and every mutator, Clear and
// SetCapacity included, is ignored; accessors report the state at Close.
func (c *cache[K, V]) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		c.log.Debug("cache closed")
	}
	return nil
}

// ---- helpers ----

// getShard picks a shard by hashing the key; a single shard skips hashing.
func (c *cache[K, V]) getShard(k K) *shard[K, V] {
	if len(c.shards) == 1 {
		return c.shards[0]
	}
	return c.shards[util.ShardIndex(c.hash(k), len(c.shards))]
}
