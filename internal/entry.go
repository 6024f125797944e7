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
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/api"
	"github.com/starford/ansuz/internal/auth"
	"github.com/starford/ansuz/internal/docservice"
	"github.com/starford/ansuz/internal/mcpserver"
	"github.com/starford/ansuz/internal/media"
	"github.com/starford/ansuz/internal/redact"
	"github.com/starford/ansuz/internal/schema"
	"github.com/starford/ansuz/internal/sse"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/store"
	"github.com/starford/ansuz/internal/uploads"
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

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_path", cfg.Store.Path),
		slog.String("media_path", cfg.Media.Path),
		slog.String("collections_path", cfg.Collections.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Load the collection declarations.
	registry, err := schema.LoadFile(cfg.Collections.Path)
	if err != nil {
		return fmt.Errorf("load collections: %w", err)
	}

	// Ensure media directory exists.
	if err := os.MkdirAll(cfg.Media.Path, 0o755); err != nil {
		return fmt.Errorf("create media dir: %w", err)
	}

	// Initialize media storage.
	mediaFS, err := storage.NewFS(cfg.Media.Path)
	if err != nil {
		return fmt.Errorf("init media storage: %w", err)
	}

	// Initialize the document store; the media inventory and identity
	// provider share its database file.
	st, err := store.Open(cfg.Store.Path, registry)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer st.Close()

	inv, err := media.NewInventory(st.DB())
	if err != nil {
		return fmt.Errorf("init media inventory: %w", err)
	}

	provider, err := auth.NewService(st.DB(), auth.DefaultActivePeriod, auth.DefaultIdlePeriod)
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}

	// Run initial media sync.
	if err := media.Sync(inv, mediaFS, logger); err != nil {
		logger.Warn("initial media sync failed", slog.String("error", err.Error()))
	}

	// SSE broker.
	broker := sse.NewBroker()
	defer broker.Close()

	// Build the content service.
	svc := docservice.NewService(st, registry, uploads.NewService(mediaFS, registry), redact.NewPipeline(mediaFS), broker)

	if app.mcpMode {
		logger.Info("Serving MCP tools over stdio")
		return mcpserver.New(svc, registry, mediaFS, inv).ServeStdio()
	}

	// Build API router.
	apiRouter := api.NewRouter(
		api.NewHandler(svc, registry, inv),
		api.NewAuthHandler(provider),
		cfg.Auth.AuthEnabled(), cfg.Auth.Token,
		broker,
	)

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

	// Static media files.
	r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(cfg.Media.Path))))

	// Content and identity routes.
	r.Mount("/", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start media watcher with SSE callback.
	g.Go(func() error {
		return media.Watch(gCtx, inv, mediaFS, cfg.Media.Path, logger, func(kind, path string) {
			broker.PublishAssetEvent(kind, path)
		})
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
