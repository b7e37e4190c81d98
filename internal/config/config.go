// Package config loads cache and benchmark settings from YAML or JSON.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/IvanBrykalov/ttlru/cache"
)

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("config: invalid")
	// ErrUnsupportedFormat is returned for files that are neither YAML nor JSON.
	ErrUnsupportedFormat = errors.New("config: unsupported format")
)

// Format is the encoding of a config document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Config is the root document.
type Config struct {
	Cache   CacheConfig   `koanf:"cache"`
	Bench   BenchConfig   `koanf:"bench"`
	Metrics MetricsConfig `koanf:"metrics"`
	Log     LogConfig     `koanf:"log"`
}

// CacheConfig mirrors cache.Options.
type CacheConfig struct {
	Capacity int `koanf:"capacity"`
	// DefaultTTL uses the signed convention: negative never expires,
	// zero is already expired, positive is a lifetime.
	DefaultTTL time.Duration `koanf:"default_ttl"`
	Shards     int           `koanf:"shards"`
}

// BenchConfig drives cmd/bench.
type BenchConfig struct {
	Impl     string        `koanf:"impl"` // ttlru | golang-lru
	Workers  int           `koanf:"workers"`
	Duration time.Duration `koanf:"duration"`
	Reads    int           `koanf:"reads"` // percentage of Get operations
	Keys     int           `koanf:"keys"`
	ZipfS    float64       `koanf:"zipf_s"`
	ZipfV    float64       `koanf:"zipf_v"`
	Seed     int64         `koanf:"seed"`
	Preload  int           `koanf:"preload"` // 0 = capacity/2
}

// MetricsConfig controls the HTTP endpoints of cmd/bench.
type MetricsConfig struct {
	Addr      string `koanf:"addr"`  // Prometheus /metrics; empty = disabled
	Pprof     string `koanf:"pprof"` // pprof; empty = disabled
	Namespace string `koanf:"namespace"`
}

// LogConfig selects the logrus level.
type LogConfig struct {
	Level string `koanf:"level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Cache: CacheConfig{
			Capacity:   100_000,
			DefaultTTL: -time.Second,
			Shards:     1,
		},
		Bench: BenchConfig{
			Impl:     "ttlru",
			Workers:  8,
			Duration: 10 * time.Second,
			Reads:    80,
			Keys:     1_000_000,
			ZipfS:    1.1,
			ZipfV:    1.0,
			Seed:     1,
		},
		Metrics: MetricsConfig{
			Addr:      ":8080",
			Namespace: "ttlru",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path (format chosen by extension) over the defaults.
func Load(path string) (Config, error) {
	format, err := detectFormat(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data, format)
}

// Parse decodes data over the defaults and validates the result.
// Keys missing from data keep their default values.
func Parse(data []byte, format Format) (Config, error) {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	cfg := Default()
	k := koanf.New(".")
	if len(data) > 0 {
		if err := k.Load(rawbytes.Provider(data), parser); err != nil {
			return Config{}, fmt.Errorf("config: parse: %w", err)
		}
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch {
	case c.Cache.Shards < -1:
		return fmt.Errorf("%w: cache.shards must be >= -1, got %d", ErrInvalidConfig, c.Cache.Shards)
	case c.Bench.Reads < 0 || c.Bench.Reads > 100:
		return fmt.Errorf("%w: bench.reads must be in [0,100], got %d", ErrInvalidConfig, c.Bench.Reads)
	case c.Bench.Workers < 1:
		return fmt.Errorf("%w: bench.workers must be >= 1, got %d", ErrInvalidConfig, c.Bench.Workers)
	case c.Bench.Keys < 1:
		return fmt.Errorf("%w: bench.keys must be >= 1, got %d", ErrInvalidConfig, c.Bench.Keys)
	case c.Bench.ZipfS <= 1:
		return fmt.Errorf("%w: bench.zipf_s must be > 1, got %v", ErrInvalidConfig, c.Bench.ZipfS)
	case c.Bench.ZipfV < 1:
		return fmt.Errorf("%w: bench.zipf_v must be >= 1, got %v", ErrInvalidConfig, c.Bench.ZipfV)
	case c.Bench.Impl != "ttlru" && c.Bench.Impl != "golang-lru":
		return fmt.Errorf("%w: bench.impl must be ttlru or golang-lru, got %q", ErrInvalidConfig, c.Bench.Impl)
	}
	return nil
}

// CacheOptions converts the cache section into cache.Options.
// Capacity below zero is left to cache.New, which treats it as zero.
func CacheOptions[K comparable, V any](c CacheConfig) cache.Options[K, V] {
	return cache.Options[K, V]{
		Capacity:   c.Capacity,
		DefaultTTL: cache.TTLOf(c.DefaultTTL),
		Shards:     c.Shards,
	}
}

func detectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}
