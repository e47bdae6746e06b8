package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/sheetdash/internal/config"
	"github.com/JonMunkholm/sheetdash/internal/core"
	"github.com/JonMunkholm/sheetdash/internal/logging"
	"github.com/JonMunkholm/sheetdash/internal/web"
	"github.com/JonMunkholm/sheetdash/internal/workbook"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"workbook_dir", cfg.Workbook.Dir,
		"max_file_size", cfg.Workbook.MaxFileSize.String(),
		"upload_max_concurrent", cfg.Workbook.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"audit_database", cfg.Database.AuditEnabled(),
	)

	ctx := context.Background()

	store, closeStore, err := openAuditStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open audit store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	catalog, err := openCatalog(jobCtx, cfg)
	if err != nil {
		slog.Error("failed to open workbook catalog", "error", err)
		os.Exit(1)
	}
	if catalog != nil {
		defer catalog.Close()
	}

	service := core.NewService(cfg, catalog, store)
	server := web.NewServer(service, cfg)

	go service.StartSessionSweeper(jobCtx, cfg.Session.SweepInterval)

	// Graceful shutdown
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		// Stop background jobs
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for active uploads to complete (with timeout)
		if status := service.Limiter().Status(); status.Active > 0 {
			slog.Info("waiting for uploads to complete", "active", status.Active)
		}
		if err := service.Limiter().Drain(shutdownCtx); err != nil {
			slog.Warn("uploads did not complete in time", "error", err)
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	<-shutdownDone
	slog.Info("server stopped")
}

// openAuditStore connects to Postgres when a database URL is configured and
// falls back to the in-memory trail otherwise.
func openAuditStore(ctx context.Context, cfg *config.Config) (core.AuditStore, func(), error) {
	if !cfg.Database.AuditEnabled() {
		slog.Info("no database configured, keeping audit trail in memory")
		return core.NewMemoryAuditStore(0), func() {}, nil
	}

	// Parse and configure connection pool
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	store := core.NewPGAuditStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool.Close, nil
}

// openCatalog scans the workbook directory, optionally preloads it and
// starts the watcher. An empty directory setting disables the catalog.
func openCatalog(ctx context.Context, cfg *config.Config) (*workbook.Catalog, error) {
	if cfg.Workbook.Dir == "" {
		return nil, nil
	}

	catalog := workbook.NewCatalog(cfg.Workbook.Dir)
	if err := catalog.Refresh(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		slog.Warn("workbook directory not found, catalog disabled", "dir", cfg.Workbook.Dir)
		return nil, nil
	}
	slog.Info("workbook catalog loaded", "dir", cfg.Workbook.Dir, "workbooks", len(catalog.Entries()))

	if cfg.Workbook.Preload {
		if err := catalog.Preload(ctx, cfg.Workbook.PreloadConcurrency); err != nil {
			return nil, err
		}
	}
	if cfg.Workbook.Watch {
		if err := catalog.Watch(ctx); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}
