package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestExpandString tests the expandString function with various scenarios
func TestExpandString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		envVars  map[string]string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			envVars:  map[string]string{},
			expected: "",
		},
		{
			name:     "string without placeholders",
			input:    "simple-string",
			envVars:  map[string]string{},
			expected: "simple-string",
		},
		{
			name:     "simple variable expansion",
			input:    "${MASTER_KEY}",
			envVars:  map[string]string{"MASTER_KEY": "sk-12345"},
			expected: "sk-12345",
		},
		{
			name:     "variable in middle of string",
			input:    "prefix-${MASTER_KEY}-suffix",
			envVars:  map[string]string{"MASTER_KEY": "sk-12345"},
			expected: "prefix-sk-12345-suffix",
		},
		{
			name:     "multiple variables",
			input:    "${SCHEME}://${HOST}:${PORT_VAR}",
			envVars:  map[string]string{"SCHEME": "https", "HOST": "db.example.com", "PORT_VAR": "5432"},
			expected: "https://db.example.com:5432",
		},
		{
			name:     "variable with default value - env var exists",
			input:    "${MASTER_KEY:-default-key}",
			envVars:  map[string]string{"MASTER_KEY": "real-key"},
			expected: "real-key",
		},
		{
			name:     "variable with default value - env var missing",
			input:    "${MASTER_KEY:-default-key}",
			envVars:  map[string]string{},
			expected: "default-key",
		},
		{
			name:     "variable with default value - env var empty",
			input:    "${MASTER_KEY:-default-key}",
			envVars:  map[string]string{"MASTER_KEY": ""},
			expected: "default-key",
		},
		{
			name:     "unresolved variable - no default",
			input:    "${MISSING_VAR}",
			envVars:  map[string]string{},
			expected: "${MISSING_VAR}",
		},
		{
			name:     "partially resolved string",
			input:    "${RESOLVED}-${UNRESOLVED}",
			envVars:  map[string]string{"RESOLVED": "value1"},
			expected: "value1-${UNRESOLVED}",
		},
		{
			name:     "default value with colon in it",
			input:    "${URL_VAR:-http://localhost:6379}",
			envVars:  map[string]string{},
			expected: "http://localhost:6379",
		},
		{
			name:     "empty default value - env var missing",
			input:    "${OPTIONAL_VAR:-}",
			envVars:  map[string]string{},
			expected: "",
		},
		{
			name:     "master key pattern - set to value",
			input:    "${PIIGATE_MASTER_KEY_VAR:-}",
			envVars:  map[string]string{"PIIGATE_MASTER_KEY_VAR": "secret-key"},
			expected: "secret-key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				_ = os.Setenv(k, v)
			}
			defer func() {
				for k := range tt.envVars {
					_ = os.Unsetenv(k)
				}
			}()

			result := expandString(tt.input)
			if result != tt.expected {
				t.Errorf("expandString(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

// TestApplyEnvOverrides tests the applyEnvOverrides function
func TestApplyEnvOverrides(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name:    "PORT override",
			envVars: map[string]string{"PORT": "3000"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.Port != "3000" {
					t.Errorf("Server.Port = %q, want %q", cfg.Server.Port, "3000")
				}
			},
		},
		{
			name:    "PIIGATE_MASTER_KEY override",
			envVars: map[string]string{"PIIGATE_MASTER_KEY": "my-secret"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.MasterKey != "my-secret" {
					t.Errorf("Server.MasterKey = %q, want %q", cfg.Server.MasterKey, "my-secret")
				}
			},
		},
		{
			name:    "storage overrides",
			envVars: map[string]string{"STORAGE_TYPE": "postgresql", "POSTGRES_URL": "postgres://localhost/test", "POSTGRES_MAX_CONNS": "20"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Storage.Type != "postgresql" {
					t.Errorf("Storage.Type = %q, want %q", cfg.Storage.Type, "postgresql")
				}
				if cfg.Storage.PostgreSQL.URL != "postgres://localhost/test" {
					t.Errorf("Storage.PostgreSQL.URL = %q", cfg.Storage.PostgreSQL.URL)
				}
				if cfg.Storage.PostgreSQL.MaxConns != 20 {
					t.Errorf("Storage.PostgreSQL.MaxConns = %d, want 20", cfg.Storage.PostgreSQL.MaxConns)
				}
			},
		},
		{
			name:    "bool overrides",
			envVars: map[string]string{"METRICS_ENABLED": "true", "DETECT_URL": "0", "DISABLE_NAME_PARSING": "1"},
			check: func(t *testing.T, cfg *Config) {
				if !cfg.Metrics.Enabled {
					t.Error("Metrics.Enabled should be true")
				}
				if cfg.Detector.URL {
					t.Error("Detector.URL should be false")
				}
				if !cfg.Detector.DisableNameParsing {
					t.Error("Detector.DisableNameParsing should be true")
				}
			},
		},
		{
			name:    "cache overrides",
			envVars: map[string]string{"CACHE_BACKEND": "redis", "REDIS_URL": "redis://localhost:6379/0"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Cache.Backend != "redis" {
					t.Errorf("Cache.Backend = %q, want %q", cfg.Cache.Backend, "redis")
				}
				if cfg.Cache.RedisURL != "redis://localhost:6379/0" {
					t.Errorf("Cache.RedisURL = %q", cfg.Cache.RedisURL)
				}
			},
		},
		{
			name:    "no env vars set preserves defaults",
			envVars: map[string]string{},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.Port != "8080" {
					t.Errorf("Server.Port = %q, want %q", cfg.Server.Port, "8080")
				}
				if cfg.Cache.Backend != "memory" {
					t.Errorf("Cache.Backend = %q, want %q", cfg.Cache.Backend, "memory")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := buildDefaultConfig()
			require.NoError(t, applyEnvOverrides(cfg))
			tt.check(t, cfg)
		})
	}
}

func TestApplyEnvOverridesRejectsBadValues(t *testing.T) {
	t.Run("invalid bool", func(t *testing.T) {
		t.Setenv("METRICS_ENABLED", "maybe")
		cfg := buildDefaultConfig()
		require.Error(t, applyEnvOverrides(cfg))
	})

	t.Run("invalid int", func(t *testing.T) {
		t.Setenv("POSTGRES_MAX_CONNS", "many")
		cfg := buildDefaultConfig()
		require.Error(t, applyEnvOverrides(cfg))
	})
}
