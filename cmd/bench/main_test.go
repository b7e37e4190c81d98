package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/IvanBrykalov/ttlru/internal/config"
)

// resolve runs the CLI with args and returns the merged config.
func resolve(t *testing.T, args ...string) (config.Config, error) {
	t.Helper()

	var (
		got    config.Config
		gotErr error
	)
	app := newApp()
	app.Action = func(_ context.Context, cmd *cli.Command) error {
		got, gotErr = resolveConfig(cmd)
		return nil
	}
	require.NoError(t, app.Run(context.Background(), append([]string{"bench"}, args...)))
	return got, gotErr
}

func TestResolveConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.yaml")
	doc := "cache:\n  capacity: 64\n  shards: 4\nbench:\n  workers: 3\n  reads: 50\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg, err := resolve(t, "--config", path, "--reads", "90", "--impl", "golang-lru")
	require.NoError(t, err)

	assert.Equal(t, 64, cfg.Cache.Capacity, "file value")
	assert.Equal(t, 4, cfg.Cache.Shards, "file value")
	assert.Equal(t, 3, cfg.Bench.Workers, "flag default must not override the file")
	assert.Equal(t, 90, cfg.Bench.Reads, "explicit flag wins")
	assert.Equal(t, "golang-lru", cfg.Bench.Impl)
}

func TestResolveConfig_Invalid(t *testing.T) {
	_, err := resolve(t, "--reads", "150")
	require.ErrorIs(t, err, config.ErrInvalidConfig)

	_, err = resolve(t, "--impl", "2q")
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}

func counterSum(t *testing.T, g prometheus.Gatherer, name string) float64 {
	t.Helper()

	mfs, err := g.Gather()
	require.NoError(t, err)
	var sum float64
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			sum += m.GetCounter().GetValue()
		}
	}
	return sum
}

func benchConfig(impl string) config.Config {
	cfg := config.Default()
	cfg.Cache.Capacity = 128
	cfg.Bench.Impl = impl
	cfg.Bench.Workers = 4
	cfg.Bench.Duration = 50 * time.Millisecond
	cfg.Bench.Keys = 512
	cfg.Bench.Reads = 70
	return cfg
}

func TestRun_BothImplementations(t *testing.T) {
	for _, impl := range []string{"ttlru", "golang-lru"} {
		t.Run(impl, func(t *testing.T) {
			cfg := benchConfig(impl)
			reg := prometheus.NewPedanticRegistry()
			log, _ := test.NewNullLogger()

			tg, err := newTarget(cfg, reg, log)
			require.NoError(t, err)
			defer func() { _ = tg.Close() }()

			preload(tg, 0, cfg.Cache.Capacity)
			assert.Equal(t, cfg.Cache.Capacity/2, tg.Len())

			res, err := run(context.Background(), tg, cfg.Bench)
			require.NoError(t, err)

			assert.Positive(t, res.Ops)
			assert.Equal(t, res.Ops, res.Reads+res.Writes)
			assert.Equal(t, res.Reads, res.Hits+res.Misses)
			assert.LessOrEqual(t, res.Len, cfg.Cache.Capacity)

			// every Get went through the metrics adapter
			lookups := counterSum(t, reg, "ttlru_bench_hits_total") + counterSum(t, reg, "ttlru_bench_misses_total")
			assert.Equal(t, float64(res.Reads), lookups)

			var out bytes.Buffer
			report(&out, cfg, res)
			assert.Contains(t, out.String(), "impl="+impl)
			assert.Contains(t, out.String(), "hit-rate=")
		})
	}
}

func TestRun_CancelledContext(t *testing.T) {
	cfg := benchConfig("ttlru")
	cfg.Bench.Duration = time.Hour
	tg, err := newTarget(cfg, nil, logrus.New())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := run(ctx, tg, cfg.Bench)
	require.NoError(t, err)
	assert.Less(t, res.Elapsed, time.Minute)
}

func TestNewTarget_UnknownImpl(t *testing.T) {
	cfg := config.Default()
	cfg.Bench.Impl = "ristretto"
	_, err := newTarget(cfg, nil, logrus.New())
	require.Error(t, err)
}
