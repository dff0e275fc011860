// Package config loads gateway configuration from config.yaml with PGW_
// environment overrides.
package config

import (
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Storage   StorageConfig   `koanf:"storage"`
	Secrets   SecretsConfig   `koanf:"secrets"`
	Providers ProvidersConfig `koanf:"providers"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type StorageConfig struct {
	SQLite SQLiteConfig `koanf:"sqlite"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// SecretsConfig carries the credential vault master key: 32 bytes,
// base64-encoded, usually injected as ${PGW_MASTER_KEY}.
type SecretsConfig struct {
	MasterKey string `koanf:"master_key"`
}

type ProvidersConfig struct {
	Defaults ProviderDefaults `koanf:"defaults"`
}

type ProviderDefaults struct {
	// FallbackCostPerToken prices tokens of models without vendor
	// pricing.
	FallbackCostPerToken float64 `koanf:"fallback_cost_per_token"`

	// ProbeTimeout bounds health probes, as a duration string.
	ProbeTimeout string `koanf:"probe_timeout"`
}

type TelemetryConfig struct {
	Tracing bool `koanf:"tracing"`
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads config.yaml when present, then applies PGW_ environment
// overrides (PGW_SERVER__PORT -> server.port) and defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider("config.yaml"), yaml.Parser()); err != nil {
		// File not found is fine; env vars carry the config.
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := k.Load(env.Provider("PGW_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "PGW_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("storage.sqlite.path") {
		k.Set("storage.sqlite.path", "gateway.db")
	}
	if !k.Exists("providers.defaults.fallback_cost_per_token") {
		k.Set("providers.defaults.fallback_cost_per_token", 0.00002)
	}
	if !k.Exists("providers.defaults.probe_timeout") {
		k.Set("providers.defaults.probe_timeout", "30s")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	cfg.Secrets.MasterKey = substituteEnvVars(cfg.Secrets.MasterKey)
	return &cfg, nil
}

// ProbeTimeout parses the configured probe timeout, falling back to 30s on
// a missing or malformed value.
func (c *Config) ProbeTimeout() time.Duration {
	d, err := time.ParseDuration(c.Providers.Defaults.ProbeTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
