// Package singleflight coalesces concurrent loads for the same cache key.
package singleflight

import (
	"context"
	"errors"
	"sync"
)

// ErrPanicked is returned to callers that shared a call whose fn panicked.
// The leader itself re-panics.
var ErrPanicked = errors.New("singleflight: function panicked")

// Group coalesces concurrent function calls for the same key K so that
// the supplied fn is executed at most once. Other concurrent callers
// wait for the shared result.
//
// The first caller for a key becomes the leader and runs fn. Cancelling
// ctx in a follower unblocks only that follower; it does not cancel the
// leader's fn.
type Group[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]*call[V]
}

type call[V any] struct {
	done chan struct{} // closed when val/err are published
	val  V
	err  error
	dups int
}

// Do runs fn once for the given key. shared reports whether the result was
// handed to more than one caller.
func (g *Group[K, V]) Do(ctx context.Context, key K, fn func() (V, error)) (v V, err error, shared bool) {
	g.mu.Lock()
	if g.m == nil {
		g.m = make(map[K]*call[V])
	}
	if c, ok := g.m[key]; ok {
		c.dups++
		g.mu.Unlock()

		select {
		case <-c.done:
			return c.val, c.err, true
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err(), true
		}
	}

	c := &call[V]{done: make(chan struct{})}
	g.m[key] = c
	g.mu.Unlock()

	g.doCall(c, key, fn)

	g.mu.Lock()
	shared = c.dups > 0
	g.mu.Unlock()
	return c.val, c.err, shared
}

// doCall runs fn and always forgets the key and releases waiters, even
// when fn panics.
func (g *Group[K, V]) doCall(c *call[V], key K, fn func() (V, error)) {
	normal := false
	defer func() {
		if !normal {
			c.err = ErrPanicked
		}
		g.mu.Lock()
		delete(g.m, key)
		g.mu.Unlock()
		close(c.done)
	}()

	c.val, c.err = fn()
	normal = true
}

// InFlight returns the number of keys currently being loaded.
func (g *Group[K, V]) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.m)
}
