package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aretw0/souvenir"
	"github.com/aretw0/souvenir/internal/logging"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config controls a Souvenir process. Values come from the defaults, then an
// optional YAML file, then SOUVENIR_* environment variables; CLI flags are
// applied last by the command layer.
type Config struct {
	LogLevel     string        `yaml:"log_level" env:"SOUVENIR_LOG_LEVEL"`
	LogFormat    string        `yaml:"log_format" env:"SOUVENIR_LOG_FORMAT"`
	Tick         time.Duration `yaml:"tick" env:"SOUVENIR_TICK"`
	Seed         uint64        `yaml:"seed" env:"SOUVENIR_SEED"`
	Catalog      string        `yaml:"catalog" env:"SOUVENIR_CATALOG"`
	Ignored      []string      `yaml:"ignored" env:"SOUVENIR_IGNORED" envSeparator:","`
	Excluded     []string      `yaml:"excluded" env:"SOUVENIR_EXCLUDED" envSeparator:","`
	MinEligible  int           `yaml:"min_eligible" env:"SOUVENIR_MIN_ELIGIBLE"`
	DrainTimeout time.Duration `yaml:"drain_timeout" env:"SOUVENIR_DRAIN_TIMEOUT"`
	JSON         bool          `yaml:"json" env:"SOUVENIR_JSON"`

	HTTP  HTTPConfig  `yaml:"http" envPrefix:"SOUVENIR_HTTP_"`
	Redis RedisConfig `yaml:"redis" envPrefix:"SOUVENIR_REDIS_"`
}

// HTTPConfig controls the serve command.
type HTTPConfig struct {
	Addr string `yaml:"addr" env:"ADDR"`
}

// RedisConfig points at a shared bomb state. An empty Addr keeps the bomb in memory.
type RedisConfig struct {
	Addr         string        `yaml:"addr" env:"ADDR"`
	Password     string        `yaml:"password" env:"PASSWORD"`
	DB           int           `yaml:"db" env:"DB"`
	Prefix       string        `yaml:"prefix" env:"PREFIX"`
	PollInterval time.Duration `yaml:"poll_interval" env:"POLL_INTERVAL"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:     "info",
		LogFormat:    "text",
		Tick:         20 * time.Millisecond,
		Ignored:      append([]string(nil), souvenir.DefaultIgnoredModules...),
		MinEligible:  3,
		DrainTimeout: time.Second,
		HTTP:         HTTPConfig{Addr: ":8080"},
		Redis: RedisConfig{
			Prefix:       "souvenir:bomb:",
			PollInterval: 250 * time.Millisecond,
		},
	}
}

// Load builds the configuration from the defaults, the file at path (skipped
// when path is empty) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := Decode(bytes.NewReader(data), &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Decode overlays a YAML document on cfg. Unknown keys are rejected.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}
	if c.Tick <= 0 {
		errs = append(errs, fmt.Errorf("tick must be positive, got %s", c.Tick))
	}
	if c.MinEligible < 1 {
		errs = append(errs, fmt.Errorf("min_eligible must be at least 1, got %d", c.MinEligible))
	}
	if c.DrainTimeout <= 0 {
		errs = append(errs, fmt.Errorf("drain_timeout must be positive, got %s", c.DrainTimeout))
	}
	return errors.Join(errs...)
}
