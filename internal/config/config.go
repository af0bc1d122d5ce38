// Package config loads the rawrbooks configuration file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable consulted when no --config flag is
// given.
const EnvPath = "RAWRBOOKS_CONFIG"

// Store kinds.
const (
	StoreMemory    = "memory"
	StoreRistretto = "ristretto"
	StoreRedis     = "redis"
	StoreTiered    = "tiered"
)

// Source kinds.
const (
	SourceSlow     = "slow"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
)

// Config is the on-disk configuration of the rawrbooks binary.
type Config struct {
	// Delay is the simulated latency of the slow source, e.g. "3s".
	Delay       string          `yaml:"delay" json:"delay"`
	GRPCAddr    string          `yaml:"grpc_addr" json:"grpc_addr"`
	MetricsAddr string          `yaml:"metrics_addr" json:"metrics_addr"`
	Store       StoreConfig     `yaml:"store" json:"store"`
	Source      SourceConfig    `yaml:"source" json:"source"`
	RateLimit   RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Log         LogConfig       `yaml:"log" json:"log"`
	Tracing     bool            `yaml:"tracing" json:"tracing"`
}

// StoreConfig selects where cached books live.
type StoreConfig struct {
	Kind string `yaml:"kind" json:"kind"`
	// MaxEntries bounds the ristretto store. Zero means DefaultMaxEntries.
	MaxEntries int64       `yaml:"max_entries" json:"max_entries"`
	Redis      RedisConfig `yaml:"redis" json:"redis"`
}

// RedisConfig addresses the shared L2 store.
type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
	Prefix   string `yaml:"prefix" json:"prefix"`
}

// SourceConfig selects the backing book repository.
type SourceConfig struct {
	Kind string `yaml:"kind" json:"kind"`
	DSN  string `yaml:"dsn" json:"dsn"`
}

// RateLimitConfig limits the gRPC server. RPS <= 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" json:"rps"`
	Burst int     `yaml:"burst" json:"burst"`
}

// LogConfig configures apex/log.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Defaults.
const (
	DefaultDelay       = 3 * time.Second
	DefaultGRPCAddr    = ":50051"
	DefaultMetricsAddr = ":9090"
	DefaultMaxEntries  = 10_000
)

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Delay:       DefaultDelay.String(),
		GRPCAddr:    DefaultGRPCAddr,
		MetricsAddr: DefaultMetricsAddr,
		Store:       StoreConfig{Kind: StoreMemory, MaxEntries: DefaultMaxEntries},
		Source:      SourceConfig{Kind: SourceSlow},
		Log:         LogConfig{Level: "info", Format: "text"},
	}
}

// LoadConfig reads and parses a config file from the given path on top of
// [Default]. Supported formats: JSON (.json), YAML (.yaml, .yml).
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q: use .json, .yaml, or .yml", ext)
	}

	return &cfg, nil
}

// Resolve loads path, or $RAWRBOOKS_CONFIG when path is empty, and validates
// the result. With neither set it returns [Default].
func Resolve(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvPath)
	}
	if path == "" {
		cfg := Default()
		return &cfg, nil
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := ValidateConfig(*cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// DelayDuration parses Delay. An empty value yields DefaultDelay.
func (c Config) DelayDuration() (time.Duration, error) {
	if c.Delay == "" {
		return DefaultDelay, nil
	}
	d, err := time.ParseDuration(c.Delay)
	if err != nil {
		return 0, fmt.Errorf("delay: %w", err)
	}
	return d, nil
}

// ValidateConfig validates a Config for correctness.
func ValidateConfig(cfg Config) error {
	var errs []error

	if d, err := cfg.DelayDuration(); err != nil {
		errs = append(errs, err)
	} else if d < 0 {
		errs = append(errs, fmt.Errorf("delay must not be negative, got %s", cfg.Delay))
	}

	switch cfg.Store.Kind {
	case "", StoreMemory, StoreRistretto:
	case StoreRedis, StoreTiered:
		if cfg.Store.Redis.Addr == "" {
			errs = append(errs, fmt.Errorf("store kind %q requires store.redis.addr", cfg.Store.Kind))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store kind: %q", cfg.Store.Kind))
	}
	if cfg.Store.MaxEntries < 0 {
		errs = append(errs, fmt.Errorf("store.max_entries must not be negative"))
	}

	switch cfg.Source.Kind {
	case "", SourceSlow, SourceSQLite:
	case SourcePostgres:
		if cfg.Source.DSN == "" {
			errs = append(errs, fmt.Errorf("source kind %q requires source.dsn", cfg.Source.Kind))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown source kind: %q", cfg.Source.Kind))
	}

	if cfg.RateLimit.Burst < 0 {
		errs = append(errs, fmt.Errorf("rate_limit.burst must not be negative"))
	}

	switch cfg.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format: %q", cfg.Log.Format))
	}

	return errors.Join(errs...)
}
