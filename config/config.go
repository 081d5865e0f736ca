// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultBodySizeLimit is the maximum accepted request body size (10MB).
const DefaultBodySizeLimit int64 = 10 * 1024 * 1024

// Config holds the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Cache    CacheConfig    `yaml:"cache"`
	Detector DetectorConfig `yaml:"detector"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port          string `yaml:"port"`
	MasterKey     string `yaml:"master_key"`
	BodySizeLimit int64  `yaml:"body_size_limit"`
}

// StorageConfig selects and configures the session snapshot backend.
type StorageConfig struct {
	Type       string           `yaml:"type"` // sqlite, postgresql, mongodb
	SQLite     SQLiteConfig     `yaml:"sqlite"`
	PostgreSQL PostgreSQLConfig `yaml:"postgresql"`
	MongoDB    MongoDBConfig    `yaml:"mongodb"`
}

// SQLiteConfig holds SQLite-specific configuration
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PostgreSQLConfig holds PostgreSQL-specific configuration
type PostgreSQLConfig struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// CacheConfig configures the detection result cache.
type CacheConfig struct {
	Backend    string `yaml:"backend"` // memory, local, redis, none
	MaxEntries int    `yaml:"max_entries"`
	Dir        string `yaml:"dir"`
	RedisURL   string `yaml:"redis_url"`
}

// DetectorConfig toggles the built-in detection patterns.
type DetectorConfig struct {
	Email              bool `yaml:"email"`
	Phone              bool `yaml:"phone"`
	SSN                bool `yaml:"ssn"`
	CreditCard         bool `yaml:"credit_card"`
	IPAddress          bool `yaml:"ip_address"`
	URL                bool `yaml:"url"`
	DisableNameParsing bool `yaml:"disable_name_parsing"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // pretty, text, json
}

// Load reads configuration from an optional .env file, an optional YAML
// file (PIIGATE_CONFIG, falling back to config.yaml), and environment
// variable overrides, in that order of increasing precedence.
func Load() (*Config, error) {
	// Load .env into the process environment (optional).
	_ = godotenv.Load()

	cfg := buildDefaultConfig()

	path := os.Getenv("PIIGATE_CONFIG")
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		if err := loadYAMLFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// buildDefaultConfig returns a Config populated with defaults.
func buildDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          "8080",
			BodySizeLimit: DefaultBodySizeLimit,
		},
		Storage: StorageConfig{
			Type: "sqlite",
			SQLite: SQLiteConfig{
				Path: "data/piigate.db",
			},
			PostgreSQL: PostgreSQLConfig{
				MaxConns: 10,
			},
			MongoDB: MongoDBConfig{
				Database: "piigate",
			},
		},
		Cache: CacheConfig{
			Backend:    "memory",
			MaxEntries: 4096,
		},
		Detector: DetectorConfig{
			Email:      true,
			Phone:      true,
			SSN:        true,
			CreditCard: true,
			IPAddress:  true,
			URL:        true,
		},
		Metrics: MetricsConfig{
			Enabled:  false,
			Endpoint: "/metrics",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// loadYAMLFile merges a YAML config file into cfg. String values may
// use ${VAR} or ${VAR:-default} placeholders resolved against the
// environment.
func loadYAMLFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	cfg.Server.Port = expandString(cfg.Server.Port)
	cfg.Server.MasterKey = expandString(cfg.Server.MasterKey)
	cfg.Storage.SQLite.Path = expandString(cfg.Storage.SQLite.Path)
	cfg.Storage.PostgreSQL.URL = expandString(cfg.Storage.PostgreSQL.URL)
	cfg.Storage.MongoDB.URI = expandString(cfg.Storage.MongoDB.URI)
	cfg.Storage.MongoDB.Database = expandString(cfg.Storage.MongoDB.Database)
	cfg.Cache.Dir = expandString(cfg.Cache.Dir)
	cfg.Cache.RedisURL = expandString(cfg.Cache.RedisURL)
	return nil
}

var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// expandString resolves ${VAR} and ${VAR:-default} placeholders against
// the environment. An unset or empty variable falls back to the default
// when one is given; without a default, an unresolved placeholder is
// left in place.
func expandString(s string) string {
	return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := placeholderPattern.FindStringSubmatch(match)
		name, hasDefault, def := groups[1], groups[2] != "", groups[3]
		if value := os.Getenv(name); value != "" {
			return value
		}
		if hasDefault {
			return def
		}
		return match
	})
}

// applyEnvOverrides applies environment variable overrides to cfg.
func applyEnvOverrides(cfg *Config) error {
	envString("PORT", &cfg.Server.Port)
	envString("PIIGATE_MASTER_KEY", &cfg.Server.MasterKey)
	if err := envInt64("BODY_SIZE_LIMIT", &cfg.Server.BodySizeLimit); err != nil {
		return err
	}

	envString("STORAGE_TYPE", &cfg.Storage.Type)
	envString("SQLITE_PATH", &cfg.Storage.SQLite.Path)
	envString("POSTGRES_URL", &cfg.Storage.PostgreSQL.URL)
	if err := envInt("POSTGRES_MAX_CONNS", &cfg.Storage.PostgreSQL.MaxConns); err != nil {
		return err
	}
	envString("MONGODB_URI", &cfg.Storage.MongoDB.URI)
	envString("MONGODB_DATABASE", &cfg.Storage.MongoDB.Database)

	envString("CACHE_BACKEND", &cfg.Cache.Backend)
	envString("CACHE_DIR", &cfg.Cache.Dir)
	if err := envInt("CACHE_MAX_ENTRIES", &cfg.Cache.MaxEntries); err != nil {
		return err
	}
	envString("REDIS_URL", &cfg.Cache.RedisURL)

	for key, dst := range map[string]*bool{
		"DETECT_EMAIL":         &cfg.Detector.Email,
		"DETECT_PHONE":         &cfg.Detector.Phone,
		"DETECT_SSN":           &cfg.Detector.SSN,
		"DETECT_CREDIT_CARD":   &cfg.Detector.CreditCard,
		"DETECT_IP_ADDRESS":    &cfg.Detector.IPAddress,
		"DETECT_URL":           &cfg.Detector.URL,
		"DISABLE_NAME_PARSING": &cfg.Detector.DisableNameParsing,
		"METRICS_ENABLED":      &cfg.Metrics.Enabled,
	} {
		if err := envBool(key, dst); err != nil {
			return err
		}
	}

	envString("METRICS_ENDPOINT", &cfg.Metrics.Endpoint)
	envString("LOG_LEVEL", &cfg.Logging.Level)
	envString("LOG_FORMAT", &cfg.Logging.Format)

	return nil
}

func envString(key string, dst *string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

func envBool(key string, dst *bool) error {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("invalid boolean for %s: %q", key, raw)
	}
	*dst = value
	return nil
}

func envInt(key string, dst *int) error {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid integer for %s: %q", key, raw)
	}
	*dst = value
	return nil
}

func envInt64(key string, dst *int64) error {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid integer for %s: %q", key, raw)
	}
	*dst = value
	return nil
}
