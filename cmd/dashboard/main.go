// cmd/dashboard/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/toluwase/gitdash/internal/api"
	"github.com/toluwase/gitdash/internal/cache"
	"github.com/toluwase/gitdash/internal/catalog"
	"github.com/toluwase/gitdash/internal/config"
	"github.com/toluwase/gitdash/internal/content"
	"github.com/toluwase/gitdash/internal/github"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Application startup error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Initialize structured logger
	logLevel := new(slog.LevelVar)
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// 2. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setLogLevel(cfg.LogLevel, logLevel)
	logger.Info("Configuration loaded successfully", "handle", cfg.AccountHandle)

	// 3. Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 4. Open the persistent cache
	store, err := cache.Open(cfg.CachePath, logger)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer store.Close()
	logger.Info("Cache opened", "path", cfg.CachePath)

	// 5. Initialize application components
	ghClient := github.NewClient(cfg.GithubToken, logger)
	if cfg.APIBaseURL != "" {
		if _, err := ghClient.WithBaseURL(cfg.APIBaseURL); err != nil {
			return fmt.Errorf("configure API base URL: %w", err)
		}
	}
	cat := catalog.New(ghClient, store, logger, cfg.AccountHandle)
	loader := content.NewLoader(ghClient, logger)

	// 6. Rehydrate the catalog before any network call; refresh in the
	// background only when nothing was restored.
	if restored := cat.Rehydrate(ctx); restored == 0 {
		go func() {
			if err := cat.Refresh(ctx); err != nil {
				logger.Error("Initial catalog refresh failed", "error", err)
			}
		}()
	}

	// 7. Serve the dashboard API until shutdown
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.NewRouter(cat, loader, ghClient, logger),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Dashboard API listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("Shutdown signal received. Exiting.")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

func setLogLevel(level string, v *slog.LevelVar) {
	switch level {
	case "debug":
		v.Set(slog.LevelDebug)
	case "warn":
		v.Set(slog.LevelWarn)
	case "error":
		v.Set(slog.LevelError)
	default:
		v.Set(slog.LevelInfo)
	}
}
