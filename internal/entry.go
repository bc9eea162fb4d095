// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/jasoncui/notion-blog/internal/api"
	"github.com/jasoncui/notion-blog/internal/draftservice"
	"github.com/jasoncui/notion-blog/internal/feed"
	"github.com/jasoncui/notion-blog/internal/images"
	"github.com/jasoncui/notion-blog/internal/mcpserver"
	"github.com/jasoncui/notion-blog/internal/metrics"
	"github.com/jasoncui/notion-blog/internal/notion"
	"github.com/jasoncui/notion-blog/internal/site"
	"github.com/jasoncui/notion-blog/internal/store"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger. The level lives in a LevelVar so the
	// config watcher can adjust it at runtime.
	level := new(slog.LevelVar)
	level.Set(cfg.App.LogLevel)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("images_dir", cfg.Images.Dir),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure the SQLite parent directory exists.
	if dir := filepath.Dir(cfg.SQLite.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create db dir: %w", err)
		}
	}

	// Draft token and comment store.
	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	// Notion API client.
	var clientOpts []notion.Option
	if cfg.Notion.BaseURL != "" {
		clientOpts = append(clientOpts, notion.WithBaseURL(cfg.Notion.BaseURL))
	}
	client := notion.NewClient(cfg.Notion.APIKey, clientOpts...)
	loader := notion.NewLoader(client)

	// Local image cache.
	imgCache, err := images.New(cfg.Images.Dir, logger)
	if err != nil {
		return fmt.Errorf("init image cache: %w", err)
	}

	// Comment event broker.
	broker := feed.NewBroker()
	defer broker.Close()

	// Draft review service.
	drafts := draftservice.NewService(db, client, broker, cfg.Notion.DatabaseID, cfg.Draft.TokenTTL())

	if app.mcpMode {
		logger.Info("Starting MCP server on stdio")
		return mcpserver.New(client, loader, drafts, cfg.Notion.DatabaseID).ServeStdio()
	}

	// Build API router.
	apiRouter := api.NewRouter(drafts, cfg.Draft.RateRPS, cfg.Draft.RateBurst)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Prometheus metrics.
	r.Handle("/metrics", metrics.Handler())

	// Cached Notion images.
	r.Handle(images.URLPrefix+"*", imgCache.Handler())

	// Mount draft API routes under /api.
	r.Mount("/api", apiRouter)

	// HTML pages.
	pages := site.NewHandler(client, loader, imgCache, drafts, cfg.Notion.DatabaseID, cfg.Site.Title)
	pages.Routes(r)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the config file for log level changes.
	if app.configPath != "" {
		g.Go(func() error {
			if err := watchConfig(gCtx, app.configPath, level, logger); err != nil {
				logger.Warn("config watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Periodically evict stale cached images.
	g.Go(func() error {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-ticker.C:
				removed, err := imgCache.Cleanup(cfg.Images.MaxAge())
				if err != nil {
					logger.Warn("image cleanup failed", slog.String("error", err.Error()))
					continue
				}
				if removed > 0 {
					logger.Info("image cleanup", slog.Int("removed", removed))
				}
			}
		}
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
