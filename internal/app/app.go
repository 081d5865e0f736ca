// Package app provides the main application struct for centralized dependency management
// and lifecycle control of the piigate server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"piigate/config"
	"piigate/internal/cache"
	"piigate/internal/core"
	"piigate/internal/detect"
	"piigate/internal/server"
	"piigate/internal/sessionstore"
	"piigate/internal/storage"
)

// App represents the main application with all its dependencies.
// It provides centralized lifecycle management for all components.
type App struct {
	config   *config.Config
	sessions *sessionstore.Result
	cache    cache.Cache
	server   *server.Server

	shutdownMu sync.Mutex
	shutdown   bool
}

// New creates a new App with all dependencies initialized.
// The caller must call Shutdown to release resources.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	app := &App{config: cfg}

	detectCache, err := buildCache(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	app.cache = detectCache

	sessions, err := sessionstore.New(ctx, storage.Config{
		Type: cfg.Storage.Type,
		SQLite: storage.SQLiteConfig{
			Path: cfg.Storage.SQLite.Path,
		},
		PostgreSQL: storage.PostgreSQLConfig{
			URL:      cfg.Storage.PostgreSQL.URL,
			MaxConns: cfg.Storage.PostgreSQL.MaxConns,
		},
		MongoDB: storage.MongoDBConfig{
			URL:      cfg.Storage.MongoDB.URI,
			Database: cfg.Storage.MongoDB.Database,
		},
	})
	if err != nil {
		closeErr := closeCache(detectCache)
		if closeErr != nil {
			return nil, fmt.Errorf("failed to initialize session store: %w (also: cache close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}
	app.sessions = sessions

	app.logStartupInfo()

	serverCfg := &server.Config{
		MasterKey:       cfg.Server.MasterKey,
		MetricsEnabled:  cfg.Metrics.Enabled,
		MetricsEndpoint: cfg.Metrics.Endpoint,
		BodySizeLimit:   cfg.Server.BodySizeLimit,
	}
	handler := server.NewHandler(buildDetector(cfg.Detector, detectCache), sessions.Store)
	app.server = server.New(handler, serverCfg)

	return app, nil
}

// Start starts the HTTP server on the given address.
// This is a blocking call that returns when the server stops.
func (a *App) Start(addr string) error {
	if a.server == nil {
		return fmt.Errorf("server is not initialized")
	}
	slog.Info("starting server", "address", addr)
	if err := a.server.Start(addr); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			slog.Info("server stopped gracefully")
			return nil
		}
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Shutdown gracefully tears down app components in dependency order:
// first the HTTP server stops accepting requests, then the session
// store and its storage close, then the detection cache.
//
// Shutdown is idempotent and safe for repeated calls; after the first
// call, subsequent calls are no-ops. It attempts every close step,
// aggregates failures, and returns a joined error if any step fails.
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownMu.Lock()
	if a.shutdown {
		a.shutdownMu.Unlock()
		return nil
	}
	a.shutdown = true
	a.shutdownMu.Unlock()

	slog.Info("shutting down application...")

	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", "error", err)
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
	}

	if a.sessions != nil {
		if err := a.sessions.Close(); err != nil {
			slog.Error("session store close error", "error", err)
			errs = append(errs, fmt.Errorf("session store close: %w", err))
		}
	}

	if err := closeCache(a.cache); err != nil {
		slog.Error("cache close error", "error", err)
		errs = append(errs, fmt.Errorf("cache close: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	slog.Info("application shutdown complete")
	return nil
}

// buildDetector assembles the detector chain: regex patterns at the
// bottom, result caching above them, and name parsing on top so person
// entities found in cached results are still split into components.
func buildDetector(cfg config.DetectorConfig, c cache.Cache) core.Detector {
	var detector core.Detector = detect.NewRegexDetector(detect.Config{
		Email:      cfg.Email,
		Phone:      cfg.Phone,
		SSN:        cfg.SSN,
		CreditCard: cfg.CreditCard,
		IPAddress:  cfg.IPAddress,
		URL:        cfg.URL,
	})
	if c != nil {
		detector = detect.NewCachingDetector(detector, c)
	}
	if !cfg.DisableNameParsing {
		detector = detect.NewNameParser(detector)
	}
	return detector
}

// buildCache creates the detection result cache for the configured
// backend. Backend "none" disables caching entirely.
func buildCache(cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case "", "memory":
		return cache.NewMemoryCache(cfg.MaxEntries), nil
	case "local":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("cache backend %q requires a directory", cfg.Backend)
		}
		return cache.NewLocalCache(cfg.Dir), nil
	case "redis":
		return cache.NewRedisCache(cache.RedisConfig{URL: cfg.RedisURL})
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %q (valid: memory, local, redis, none)", cfg.Backend)
	}
}

func closeCache(c cache.Cache) error {
	if c == nil {
		return nil
	}
	return c.Close()
}

// logStartupInfo logs the application configuration on startup.
func (a *App) logStartupInfo() {
	cfg := a.config

	if cfg.Server.MasterKey == "" {
		slog.Warn("SECURITY WARNING: PIIGATE_MASTER_KEY not set - server running in UNSAFE MODE",
			"security_risk", "unauthenticated access allowed",
			"recommendation", "set PIIGATE_MASTER_KEY environment variable to secure this service")
	} else {
		slog.Info("authentication enabled", "mode", "master_key")
	}

	if cfg.Metrics.Enabled {
		slog.Info("prometheus metrics enabled", "endpoint", cfg.Metrics.Endpoint)
	} else {
		slog.Info("prometheus metrics disabled")
	}

	slog.Info("storage configured", "type", cfg.Storage.Type)
	slog.Info("detection cache configured", "backend", cfg.Cache.Backend)

	if cfg.Detector.DisableNameParsing {
		slog.Info("name parsing disabled")
	}
}
