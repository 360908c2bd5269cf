// Package config loads and validates the settings a tiered cache is built from.
package config

import (
	"log/slog"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/jmgilman/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/krisalay/tiered-content-cache/eviction"
	"github.com/krisalay/tiered-content-cache/types"
)

// Config controls the shape of the cache and how the host program logs.
type Config struct {
	// Tiers is the number of independent tiers records are routed across.
	Tiers int `yaml:"tiers"`

	// TierCapacity is the capacity of every tier, in the same units as record sizes.
	TierCapacity int `yaml:"tier_capacity"`

	// Policy is the default eviction policy, "lru" or "mru".
	Policy string `yaml:"policy"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
}

// Default returns three tiers of 200 units evicting least recently used records.
func Default() Config {
	return Config{
		Tiers:        types.DefaultTiers,
		TierCapacity: 200,
		Policy:       eviction.LRU.String(),
		LogLevel:     "info",
	}
}

// Load reads a YAML file from fs and overlays it on Default.
// Fields missing from the file keep their default values.
func Load(fs billy.Filesystem, path string) (Config, error) {
	data, err := util.ReadFile(fs, path)
	if err != nil {
		return Config{}, errors.WithContext(
			errors.Wrap(err, errors.CodeInvalidConfig, "failed to read config file"),
			"path", path,
		)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, errors.WithContext(err, "path", path)
	}
	return cfg, nil
}

// Parse decodes YAML over Default and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, errors.CodeInvalidConfig, "failed to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field and returns the first problem found.
func (c Config) Validate() error {
	if c.Tiers < 1 {
		return errors.Newf(errors.CodeInvalidConfig, "tiers must be at least 1, got %d", c.Tiers)
	}
	if c.TierCapacity < 0 {
		return errors.Newf(errors.CodeInvalidConfig, "tier_capacity must not be negative, got %d", c.TierCapacity)
	}
	if _, err := eviction.ParsePolicy(c.Policy); err != nil {
		return errors.Wrap(err, errors.CodeInvalidConfig, "invalid policy")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// EvictionPolicy returns the parsed default policy. It assumes c is valid
// and falls back to LRU otherwise.
func (c Config) EvictionPolicy() eviction.Policy {
	p, err := eviction.ParsePolicy(c.Policy)
	if err != nil {
		return eviction.LRU
	}
	return p
}

// SlogLevel returns the parsed log level, or info if it is invalid.
func (c Config) SlogLevel() slog.Level {
	l, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, errors.Newf(errors.CodeInvalidConfig, "unknown log level %q", s)
	}
}
