package main

import (
	"fmt"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/IvanBrykalov/ttlru/cache"
	"github.com/IvanBrykalov/ttlru/internal/config"
	pmet "github.com/IvanBrykalov/ttlru/metrics/prom"
)

// target is the subset of cache operations the workload drives.
type target interface {
	Get(k string) (string, bool)
	Set(k, v string)
	Len() int
	Close() error
}

type ttlruTarget struct{ c cache.Cache[string, string] }

func (t ttlruTarget) Get(k string) (string, bool) { return t.c.Get(k) }
func (t ttlruTarget) Set(k, v string)             { t.c.Set(k, v) }
func (t ttlruTarget) Len() int                    { return t.c.Length() }
func (t ttlruTarget) Close() error                { return t.c.Close() }

// lruTarget is the golang-lru expirable baseline. It has no metrics hooks,
// so hits and misses are counted on the adapter side.
type lruTarget struct {
	c       *expirable.LRU[string, string]
	metrics cache.Metrics
}

func (t lruTarget) Get(k string) (string, bool) {
	v, ok := t.c.Get(k)
	if ok {
		t.metrics.Hit()
	} else {
		t.metrics.Miss()
	}
	return v, ok
}

func (t lruTarget) Set(k, v string) { t.c.Add(k, v) }
func (t lruTarget) Len() int        { return t.c.Len() }

func (t lruTarget) Close() error {
	t.c.Purge()
	return nil
}

// newTarget builds the implementation named by cfg.Bench.Impl.
// reg may be nil, in which case metrics are not exported.
func newTarget(cfg config.Config, reg prometheus.Registerer, log logrus.FieldLogger) (target, error) {
	var metrics cache.Metrics = cache.NoopMetrics{}
	if reg != nil {
		metrics = pmet.New(reg, cfg.Metrics.Namespace, "bench",
			prometheus.Labels{"impl": cfg.Bench.Impl})
	}

	switch cfg.Bench.Impl {
	case "ttlru":
		opt := config.CacheOptions[string, string](cfg.Cache)
		opt.Metrics = metrics
		opt.Logger = log
		return ttlruTarget{c: cache.New(opt)}, nil
	case "golang-lru":
		// expirable treats ttl <= 0 as "no expiry" and size 0 as unbounded.
		// Its eviction callback does not carry a reason.
		capacity := max(cfg.Cache.Capacity, 1)
		ttl := max(cfg.Cache.DefaultTTL, 0)
		onEvict := func(string, string) { metrics.Evict(cache.EvictCapacity) }
		return lruTarget{
			c:       expirable.NewLRU[string, string](capacity, onEvict, ttl),
			metrics: metrics,
		}, nil
	default:
		return nil, fmt.Errorf("unknown impl %q (use ttlru or golang-lru)", cfg.Bench.Impl)
	}
}
