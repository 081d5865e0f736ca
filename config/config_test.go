package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromYAMLFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: "9090"
  master_key: file-secret
storage:
  type: mongodb
  mongodb:
    uri: mongodb://localhost:27017
    database: piigate_test
cache:
  backend: local
  dir: /tmp/piigate-cache
metrics:
  enabled: true
  endpoint: /internal/metrics
logging:
  level: debug
  format: json
`)
	t.Setenv("PIIGATE_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "file-secret", cfg.Server.MasterKey)
	assert.Equal(t, "mongodb", cfg.Storage.Type)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Storage.MongoDB.URI)
	assert.Equal(t, "piigate_test", cfg.Storage.MongoDB.Database)
	assert.Equal(t, "local", cfg.Cache.Backend)
	assert.Equal(t, "/tmp/piigate-cache", cfg.Cache.Dir)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/internal/metrics", cfg.Metrics.Endpoint)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	// Defaults survive for sections the file does not mention.
	assert.Equal(t, DefaultBodySizeLimit, cfg.Server.BodySizeLimit)
	assert.True(t, cfg.Detector.Email)
}

func TestLoadExpandsPlaceholders(t *testing.T) {
	path := writeConfigFile(t, `
server:
  master_key: ${TEST_SECRET:-fallback}
storage:
  type: postgresql
  postgresql:
    url: postgres://${TEST_DB_HOST:-localhost}:5432/piigate
`)
	t.Setenv("PIIGATE_CONFIG", path)
	t.Setenv("TEST_DB_HOST", "db.internal")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "fallback", cfg.Server.MasterKey)
	assert.Equal(t, "postgres://db.internal:5432/piigate", cfg.Storage.PostgreSQL.URL)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: "9090"
`)
	t.Setenv("PIIGATE_CONFIG", path)
	t.Setenv("PORT", "7070")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
}

func TestLoadMissingFileFails(t *testing.T) {
	t.Setenv("PIIGATE_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	require.Error(t, err)
}

func TestLoadInvalidYAMLFails(t *testing.T) {
	path := writeConfigFile(t, "server: [not a mapping")
	t.Setenv("PIIGATE_CONFIG", path)

	_, err := Load()
	require.Error(t, err)
}
