// Command shoplens runs the storefront audit crawler: an HTTP intake
// that spawns browser-driven audit sessions walking homepage → product
// page → cart → checkout with evidence capture along the way.
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

	"github.com/redis/go-redis/v9"

	"github.com/shoplens/shoplens/api"
	"github.com/shoplens/shoplens/audit"
	"github.com/shoplens/shoplens/browser"
	"github.com/shoplens/shoplens/config"
	"github.com/shoplens/shoplens/lock"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.Log)

	if err := run(cfg); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	store, err := newKeyedStore(cfg.Lock)
	if err != nil {
		return err
	}
	locker := lock.New(store, cfg.Lock)

	provider, err := browser.NewProvider(cfg.Browser, cfg.Crawl)
	if err != nil {
		return fmt.Errorf("browser: %w", err)
	}
	defer provider.Close()

	writer, err := audit.NewFSWriter(cfg.Storage.ArtifactDir)
	if err != nil {
		return fmt.Errorf("artifact storage: %w", err)
	}
	repo := audit.NewMemRepository()
	orch := audit.New(cfg, provider, locker, repo, writer)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           api.NewRouter(cfg, orch),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newKeyedStore selects the lock backend: Redis when configured, the
// in-process store otherwise (single-instance deployments and debug).
func newKeyedStore(cfg config.LockConfig) (lock.KeyedStore, error) {
	if cfg.RedisAddr == "" {
		slog.Warn("no redis configured, using in-process lock store")
		return lock.NewMemStore(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	slog.Info("redis connected", "addr", cfg.RedisAddr)
	return lock.NewRedisStore(client), nil
}

func setupLogging(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
