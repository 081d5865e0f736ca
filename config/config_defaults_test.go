package config

import "testing"

func TestBuildDefaultConfig(t *testing.T) {
	cfg := buildDefaultConfig()

	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, want %q", cfg.Server.Port, "8080")
	}
	if cfg.Server.BodySizeLimit != DefaultBodySizeLimit {
		t.Errorf("Server.BodySizeLimit = %d, want %d", cfg.Server.BodySizeLimit, DefaultBodySizeLimit)
	}
	if cfg.Server.MasterKey != "" {
		t.Errorf("Server.MasterKey should default to empty, got %q", cfg.Server.MasterKey)
	}

	if cfg.Storage.Type != "sqlite" {
		t.Errorf("Storage.Type = %q, want %q", cfg.Storage.Type, "sqlite")
	}
	if cfg.Storage.SQLite.Path != "data/piigate.db" {
		t.Errorf("Storage.SQLite.Path = %q", cfg.Storage.SQLite.Path)
	}
	if cfg.Storage.PostgreSQL.MaxConns != 10 {
		t.Errorf("Storage.PostgreSQL.MaxConns = %d, want 10", cfg.Storage.PostgreSQL.MaxConns)
	}
	if cfg.Storage.MongoDB.Database != "piigate" {
		t.Errorf("Storage.MongoDB.Database = %q", cfg.Storage.MongoDB.Database)
	}

	if cfg.Cache.Backend != "memory" {
		t.Errorf("Cache.Backend = %q, want %q", cfg.Cache.Backend, "memory")
	}
	if cfg.Cache.MaxEntries != 4096 {
		t.Errorf("Cache.MaxEntries = %d, want 4096", cfg.Cache.MaxEntries)
	}

	for name, enabled := range map[string]bool{
		"email":       cfg.Detector.Email,
		"phone":       cfg.Detector.Phone,
		"ssn":         cfg.Detector.SSN,
		"credit_card": cfg.Detector.CreditCard,
		"ip_address":  cfg.Detector.IPAddress,
		"url":         cfg.Detector.URL,
	} {
		if !enabled {
			t.Errorf("detector %s should be enabled by default", name)
		}
	}
	if cfg.Detector.DisableNameParsing {
		t.Error("name parsing should be enabled by default")
	}

	if cfg.Metrics.Enabled {
		t.Error("metrics should be disabled by default")
	}
	if cfg.Metrics.Endpoint != "/metrics" {
		t.Errorf("Metrics.Endpoint = %q, want %q", cfg.Metrics.Endpoint, "/metrics")
	}

	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v, want level=info format=text", cfg.Logging)
	}
}
