package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/ttlru/internal/config"
)

// result holds the counters of one run.
type result struct {
	Ops, Reads, Writes uint64
	Hits, Misses       uint64
	Elapsed            time.Duration
	Len                int
}

func (r result) hitRate() float64 {
	if r.Reads == 0 {
		return 0
	}
	return float64(r.Hits) / float64(r.Reads) * 100
}

func (r result) opsPerSec() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Ops) / r.Elapsed.Seconds()
}

func key(i uint64) string { return "k:" + strconv.FormatUint(i, 10) }

// preload fills t with n sequential keys so the run starts warm.
// n == 0 means half the cache capacity.
func preload(t target, n, capacity int) {
	if n == 0 {
		n = capacity / 2
	}
	for i := 0; i < n; i++ {
		t.Set(key(uint64(i)), "v"+strconv.Itoa(i))
	}
}

// run drives t with cfg.Workers goroutines until cfg.Duration elapses or
// ctx is cancelled. Keys follow a Zipf distribution over [0, cfg.Keys).
func run(ctx context.Context, t target, cfg config.BenchConfig) (result, error) {
	var reads, writes, hits, misses, total atomic.Uint64

	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	keysMax := uint64(cfg.Keys - 1)
	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < cfg.Workers; w++ {
		id := int64(w)
		g.Go(func() error {
			// rand.Rand is not goroutine-safe: one per worker.
			r := rand.New(rand.NewSource(cfg.Seed + id*9973))
			zipf := rand.NewZipf(r, cfg.ZipfS, cfg.ZipfV, keysMax)
			if zipf == nil {
				return fmt.Errorf("bench: invalid zipf parameters s=%v v=%v", cfg.ZipfS, cfg.ZipfV)
			}

			for {
				select {
				case <-ctx.Done():
					return nil
				default:
				}

				total.Add(1)
				k := key(zipf.Uint64())
				if int(r.Int31n(100)) < cfg.Reads {
					reads.Add(1)
					if _, ok := t.Get(k); ok {
						hits.Add(1)
					} else {
						misses.Add(1)
					}
				} else {
					writes.Add(1)
					t.Set(k, "v"+strconv.Itoa(r.Int()))
				}
			}
		})
	}
	err := g.Wait()

	return result{
		Ops:     total.Load(),
		Reads:   reads.Load(),
		Writes:  writes.Load(),
		Hits:    hits.Load(),
		Misses:  misses.Load(),
		Elapsed: time.Since(start),
		Len:     t.Len(),
	}, err
}

func report(w io.Writer, cfg config.Config, r result) {
	fmt.Fprintf(w, "impl=%s cap=%d shards=%d ttl=%v workers=%d keys=%d dur=%v seed=%d\n",
		cfg.Bench.Impl, cfg.Cache.Capacity, cfg.Cache.Shards, cfg.Cache.DefaultTTL,
		cfg.Bench.Workers, cfg.Bench.Keys, r.Elapsed, cfg.Bench.Seed)
	fmt.Fprintf(w, "ops=%d (%.0f ops/s)  reads=%d  writes=%d\n",
		r.Ops, r.opsPerSec(), r.Reads, r.Writes)
	fmt.Fprintf(w, "hits=%d  misses=%d  hit-rate=%.2f%%\n", r.Hits, r.Misses, r.hitRate())
	fmt.Fprintf(w, "len=%d\n", r.Len)
}
