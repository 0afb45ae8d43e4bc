// ABOUTME: Configuration for the sentinel CLI and diagnostics server
// ABOUTME: YAML file values with LEAKSENTINEL_* environment overrides

// Package config provides configuration loading and validation.
// Supports YAML files with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ConfigPathEnv names the variable Load consults for a config file path.
const ConfigPathEnv = "LEAKSENTINEL_CONFIG"

// MaxPayloadBytes caps the simulated payload; every probed owner allocates it.
const MaxPayloadBytes = 1 << 30

var (
	// ErrInvalidConfig is returned when a loaded configuration fails validation
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config holds all configuration for leaksentinel.
type Config struct {
	Sentinel      SentinelConfig      `yaml:"sentinel"`
	Diagnostics   DiagnosticsConfig   `yaml:"diagnostics"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type SentinelConfig struct {
	// Strategy is the reference strategy used when none is given on the command line.
	Strategy     string `yaml:"strategy" env:"LEAKSENTINEL_STRATEGY"`
	PayloadBytes int    `yaml:"payloadBytes" env:"LEAKSENTINEL_PAYLOAD_BYTES"`
	// ClearOnDestroy controls whether simulated controllers honour the
	// clear-on-destroy contract.
	ClearOnDestroy bool `yaml:"clearOnDestroy" env:"LEAKSENTINEL_CLEAR_ON_DESTROY"`
}

type DiagnosticsConfig struct {
	ListenAddr string `yaml:"listenAddr" env:"LEAKSENTINEL_LISTEN_ADDR"`
}

type ObservabilityConfig struct {
	LogLevel  string `yaml:"logLevel" env:"LEAKSENTINEL_LOG_LEVEL"`
	LogFormat string `yaml:"logFormat" env:"LEAKSENTINEL_LOG_FORMAT"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Sentinel: SentinelConfig{
			Strategy:       "strong",
			PayloadBytes:   1 << 20, // 1MiB, roughly a screen's view hierarchy
			ClearOnDestroy: true,
		},
		Diagnostics: DiagnosticsConfig{
			ListenAddr: ":9464",
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

// Load reads the file named by LEAKSENTINEL_CONFIG if set, otherwise starts
// from defaults. Environment overrides are applied in both cases.
func Load() (*Config, error) {
	if path := os.Getenv(ConfigPathEnv); path != "" {
		return LoadFromPath(path)
	}
	cfg := Default()
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath reads a YAML file over the defaults and applies
// environment overrides.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges. Strategy names are checked by the caller
// that parses them.
func (c *Config) Validate() error {
	if c.Sentinel.Strategy == "" {
		return fmt.Errorf("%w: sentinel.strategy is required", ErrInvalidConfig)
	}
	if c.Sentinel.PayloadBytes < 0 || c.Sentinel.PayloadBytes > MaxPayloadBytes {
		return fmt.Errorf("%w: sentinel.payloadBytes must be in [0, %d], got %d",
			ErrInvalidConfig, MaxPayloadBytes, c.Sentinel.PayloadBytes)
	}
	switch c.Observability.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown observability.logLevel %q", ErrInvalidConfig, c.Observability.LogLevel)
	}
	switch c.Observability.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("%w: unknown observability.logFormat %q", ErrInvalidConfig, c.Observability.LogFormat)
	}
	return nil
}

// applyEnv walks the config sections and overwrites any field whose env
// tag names a set variable.
func applyEnv(cfg *Config) error {
	return applyEnvValue(reflect.ValueOf(cfg).Elem())
}

func applyEnvValue(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		sf := t.Field(i)

		if field.Kind() == reflect.Struct {
			if err := applyEnvValue(field); err != nil {
				return err
			}
			continue
		}

		name := sf.Tag.Get("env")
		if name == "" {
			continue
		}
		raw, ok := os.LookupEnv(name)
		if !ok {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(raw)
		case reflect.Bool:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, name, raw, err)
			}
			field.SetBool(b)
		case reflect.Int, reflect.Int64:
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, name, raw, err)
			}
			field.SetInt(n)
		}
	}
	return nil
}
