// Command bench runs a synthetic Zipf workload against the cache (or the
// golang-lru baseline) and exposes optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/IvanBrykalov/ttlru/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "bench:", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	def := config.Default()
	return &cli.Command{
		Name:  "bench",
		Usage: "synthetic workload for the ttlru cache",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML or JSON config file; flags override it"},
			&cli.StringFlag{Name: "impl", Value: def.Bench.Impl, Usage: "implementation: ttlru | golang-lru"},

			&cli.IntFlag{Name: "cap", Value: def.Cache.Capacity, Usage: "cache capacity (entries)"},
			&cli.IntFlag{Name: "shards", Value: def.Cache.Shards, Usage: "number of shards (1 = global LRU, -1 = auto)"},
			&cli.DurationFlag{Name: "ttl", Value: def.Cache.DefaultTTL, Usage: "default TTL (negative = never, 0 = expired)"},

			&cli.IntFlag{Name: "workers", Value: 2 * runtime.GOMAXPROCS(0), Usage: "number of worker goroutines"},
			&cli.DurationFlag{Name: "duration", Value: def.Bench.Duration, Usage: "benchmark duration"},
			&cli.IntFlag{Name: "reads", Value: def.Bench.Reads, Usage: "read percentage [0..100]"},
			&cli.IntFlag{Name: "keys", Value: def.Bench.Keys, Usage: "keyspace size"},
			&cli.FloatFlag{Name: "zipf_s", Value: def.Bench.ZipfS, Usage: "Zipf s > 1 (skew)"},
			&cli.FloatFlag{Name: "zipf_v", Value: def.Bench.ZipfV, Usage: "Zipf v >= 1"},
			&cli.Int64Flag{Name: "seed", Value: time.Now().UnixNano(), Usage: "random seed"},
			&cli.IntFlag{Name: "preload", Usage: "preload entries (0 = cap/2)"},

			&cli.StringFlag{Name: "http", Value: def.Metrics.Addr, Usage: "serve Prometheus metrics at addr; empty = disabled"},
			&cli.StringFlag{Name: "pprof", Usage: "serve pprof at addr (e.g. :6060); empty = disabled"},
			&cli.StringFlag{Name: "log-level", Value: def.Log.Level, Usage: "logrus level"},
		},
		Action: action,
	}
}

func action(ctx context.Context, cmd *cli.Command) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)

	var reg *prometheus.Registry
	if cfg.Metrics.Addr != "" {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go serve(log.WithField("server", "metrics"), srv)
		defer func() { _ = srv.Close() }()
	}
	if cfg.Metrics.Pprof != "" {
		srv := &http.Server{Addr: cfg.Metrics.Pprof, ReadHeaderTimeout: 5 * time.Second}
		go serve(log.WithField("server", "pprof"), srv)
		defer func() { _ = srv.Close() }()
	}

	var registerer prometheus.Registerer
	if reg != nil {
		registerer = reg
	}
	t, err := newTarget(cfg, registerer, log)
	if err != nil {
		return err
	}
	defer func() { _ = t.Close() }()

	preload(t, cfg.Bench.Preload, cfg.Cache.Capacity)
	log.WithFields(logrus.Fields{
		"impl":     cfg.Bench.Impl,
		"workers":  cfg.Bench.Workers,
		"duration": cfg.Bench.Duration,
		"len":      t.Len(),
	}).Info("starting workload")

	res, err := run(ctx, t, cfg.Bench)
	if err != nil {
		return err
	}
	report(os.Stdout, cfg, res)
	return nil
}

func serve(log logrus.FieldLogger, srv *http.Server) {
	log.WithField("addr", srv.Addr).Info("serving")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("server stopped")
	}
}

// resolveConfig loads --config (if any) and applies explicitly set flags on
// top. Flag defaults never override file values.
func resolveConfig(cmd *cli.Command) (config.Config, error) {
	cfg := config.Default()
	if path := cmd.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return config.Config{}, err
		}
	} else {
		// Without a file, the GOMAXPROCS-based worker count and the
		// time-based seed flag defaults apply.
		cfg.Bench.Workers = cmd.Int("workers")
		cfg.Bench.Seed = cmd.Int64("seed")
	}

	if cmd.IsSet("impl") {
		cfg.Bench.Impl = cmd.String("impl")
	}
	if cmd.IsSet("cap") {
		cfg.Cache.Capacity = cmd.Int("cap")
	}
	if cmd.IsSet("shards") {
		cfg.Cache.Shards = cmd.Int("shards")
	}
	if cmd.IsSet("ttl") {
		cfg.Cache.DefaultTTL = cmd.Duration("ttl")
	}
	if cmd.IsSet("workers") {
		cfg.Bench.Workers = cmd.Int("workers")
	}
	if cmd.IsSet("duration") {
		cfg.Bench.Duration = cmd.Duration("duration")
	}
	if cmd.IsSet("reads") {
		cfg.Bench.Reads = cmd.Int("reads")
	}
	if cmd.IsSet("keys") {
		cfg.Bench.Keys = cmd.Int("keys")
	}
	if cmd.IsSet("zipf_s") {
		cfg.Bench.ZipfS = cmd.Float("zipf_s")
	}
	if cmd.IsSet("zipf_v") {
		cfg.Bench.ZipfV = cmd.Float("zipf_v")
	}
	if cmd.IsSet("seed") {
		cfg.Bench.Seed = cmd.Int64("seed")
	}
	if cmd.IsSet("preload") {
		cfg.Bench.Preload = cmd.Int("preload")
	}
	if cmd.IsSet("http") {
		cfg.Metrics.Addr = cmd.String("http")
	}
	if cmd.IsSet("pprof") {
		cfg.Metrics.Pprof = cmd.String("pprof")
	}
	if cmd.IsSet("log-level") {
		cfg.Log.Level = cmd.String("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
