package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	origPort := os.Getenv("PGW_SERVER__PORT")
	defer func() {
		if origPort != "" {
			os.Setenv("PGW_SERVER__PORT", origPort)
		} else {
			os.Unsetenv("PGW_SERVER__PORT")
		}
	}()

	t.Run("defaults", func(t *testing.T) {
		os.Unsetenv("PGW_SERVER__PORT")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.Server.Port != 8080 {
			t.Errorf("Load() port = %v, want 8080", cfg.Server.Port)
		}
		if cfg.Storage.SQLite.Path != "gateway.db" {
			t.Errorf("Load() sqlite path = %v, want gateway.db", cfg.Storage.SQLite.Path)
		}
		if cfg.Providers.Defaults.FallbackCostPerToken != 0.00002 {
			t.Errorf("Load() fallback cost = %v, want 0.00002", cfg.Providers.Defaults.FallbackCostPerToken)
		}
		if got := cfg.ProbeTimeout(); got != 30*time.Second {
			t.Errorf("ProbeTimeout() = %v, want 30s", got)
		}
	})

	t.Run("env var port override", func(t *testing.T) {
		os.Setenv("PGW_SERVER__PORT", "9000")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.Server.Port != 9000 {
			t.Errorf("Load() port = %v, want 9000", cfg.Server.Port)
		}
	})
}

func TestProbeTimeout(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"valid", "10s", 10 * time.Second},
		{"malformed", "not-a-duration", 30 * time.Second},
		{"empty", "", 30 * time.Second},
		{"negative", "-5s", 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.Providers.Defaults.ProbeTimeout = tt.value
			if got := cfg.ProbeTimeout(); got != tt.want {
				t.Errorf("ProbeTimeout() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubstituteEnvVars(t *testing.T) {
	os.Setenv("TEST_VAR", "test-value")
	defer os.Unsetenv("TEST_VAR")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple substitution", "${TEST_VAR}", "test-value"},
		{"substitution in string", "prefix-${TEST_VAR}-suffix", "prefix-test-value-suffix"},
		{"no substitution", "plain-string", "plain-string"},
		{"undefined var", "${UNDEFINED_VAR}", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := substituteEnvVars(tt.input)
			if got != tt.want {
				t.Errorf("substituteEnvVars() = %v, want %v", got, tt.want)
			}
		})
	}
}
