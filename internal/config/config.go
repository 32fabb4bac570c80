// Package config resolves tool configuration from defaults, an optional YAML
// file, and environment overrides, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the pixelveil configuration.
type Config struct {
	Crack CrackConfig `yaml:"crack"`
	Relay RelayConfig `yaml:"relay"`
}

// CrackConfig controls the password search engine.
type CrackConfig struct {
	BatchSize       int    `yaml:"batch_size"`
	MaxCombinations uint64 `yaml:"max_combinations"`
}

// RelayConfig controls the covert-channel relay server and its clients.
type RelayConfig struct {
	DNSAddr  string        `yaml:"dns_addr"`
	HTTPAddr string        `yaml:"http_addr"`
	Domain   string        `yaml:"domain"`
	ChunkTTL time.Duration `yaml:"chunk_ttl"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Crack: CrackConfig{
			BatchSize:       1000,
			MaxCombinations: 1_000_000_000,
		},
		Relay: RelayConfig{
			DNSAddr:  "127.0.0.1:5353",
			HTTPAddr: "127.0.0.1:8053",
			Domain:   "covert.example.com",
			ChunkTTL: time.Hour,
		},
	}
}

// Load resolves configuration: defaults, then the YAML file at path (ignored
// when absent, unless the path was explicitly requested), then PIXELVEIL_*
// environment variables.
func Load(path string, explicit bool) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist) && !explicit:
			// Optional file; keep defaults.
		case err != nil:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PIXELVEIL_CRACK_BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("PIXELVEIL_CRACK_BATCH_SIZE: invalid value %q", v)
		}
		cfg.Crack.BatchSize = n
	}
	if v := os.Getenv("PIXELVEIL_CRACK_MAX_COMBINATIONS"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil || n == 0 {
			return fmt.Errorf("PIXELVEIL_CRACK_MAX_COMBINATIONS: invalid value %q", v)
		}
		cfg.Crack.MaxCombinations = n
	}
	if v := os.Getenv("PIXELVEIL_RELAY_DNS_ADDR"); v != "" {
		cfg.Relay.DNSAddr = v
	}
	if v := os.Getenv("PIXELVEIL_RELAY_HTTP_ADDR"); v != "" {
		cfg.Relay.HTTPAddr = v
	}
	if v := os.Getenv("PIXELVEIL_RELAY_DOMAIN"); v != "" {
		cfg.Relay.Domain = v
	}
	if v := os.Getenv("PIXELVEIL_RELAY_CHUNK_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fmt.Errorf("PIXELVEIL_RELAY_CHUNK_TTL: invalid value %q", v)
		}
		cfg.Relay.ChunkTTL = d
	}
	return nil
}
