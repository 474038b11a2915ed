// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/RealSpaceofAce/framelord-sub002/internal/api"
	"github.com/RealSpaceofAce/framelord-sub002/internal/mcpserver"
	"github.com/RealSpaceofAce/framelord-sub002/internal/models"
	"github.com/RealSpaceofAce/framelord-sub002/internal/notestore"
	"github.com/RealSpaceofAce/framelord-sub002/internal/sse"
	"github.com/RealSpaceofAce/framelord-sub002/internal/storage"
	"github.com/RealSpaceofAce/framelord-sub002/internal/trash"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// logger initializes the structured JSON logger.
func (a *application) logger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// openRepository opens the configured storage and loads the note collection.
// The returned close function releases the storage.
func (a *application) openRepository(logger *slog.Logger) (*notestore.Repository, func() error, error) {
	cfg := a.config

	store, err := storage.Open(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}

	repo := notestore.New(store, notestore.Options{
		Key:       cfg.Store.Key,
		Retention: cfg.Trash.Retention(),
		Logger:    logger,
	})
	if err := repo.Load(); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("load notes: %w", err)
	}
	return repo, store.Close, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_driver", cfg.Store.Driver),
		slog.String("store_path", cfg.Store.Path),
		slog.Int("purge_after_days", cfg.Trash.PurgeAfterDays),
		slog.String("log_level", cfg.App.LogLevel.String()))

	repo, closeStore, err := app.openRepository(logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("storage close error", slog.String("error", err.Error()))
		}
	}()

	live, trashed := repo.Count()
	logger.Info("Notes loaded", slog.Int("live", live), slog.Int("trashed", trashed))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()
	repo.Subscribe(broker)

	apiRouter := api.NewRouter(repo, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Trash retention sweep.
	g.Go(func() error {
		trash.NewSweeper(repo, cfg.Trash.SweepInterval, logger).Run(gCtx)
		return nil
	})

	// Reload when another process rewrites the notes document.
	if cfg.Store.Watch {
		g.Go(func() error {
			err := storage.Watch(gCtx, cfg.Store.WatchedFile(), storage.DefaultDebounce, logger, func() {
				if _, err := repo.Reload(); err != nil {
					logger.Error("reload failed", slog.String("error", err.Error()))
				}
			})
			if err != nil {
				logger.Warn("store watcher disabled", slog.String("error", err.Error()))
			}
			return nil
		})
	}

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
		defer signal.Stop(quit)

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

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group context so background loops stop with the
// HTTP server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools over stdio. Logs go to the configured log
// output, which must not be stdout.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.logger()

	repo, closeStore, err := app.openRepository(logger)
	if err != nil {
		return err
	}
	defer closeStore()

	logger.Info("MCP server starting on stdio")
	if err := mcpserver.New(repo).ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// Purge permanently removes notes trashed at least days days ago. A negative
// days value uses the configured retention.
func Purge(ctx context.Context, days int, opts ...Option) (int, error) {
	app, err := newApplication(opts)
	if err != nil {
		return 0, err
	}
	logger := app.logger()

	repo, closeStore, err := app.openRepository(logger)
	if err != nil {
		return 0, err
	}
	defer closeStore()

	if days < 0 {
		return repo.AutoPurge()
	}
	return repo.PurgeOlderThan(days)
}

// Export writes the export document for every note, trashed ones included,
// to w.
func Export(ctx context.Context, w io.Writer, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.logger()

	repo, closeStore, err := app.openRepository(logger)
	if err != nil {
		return err
	}
	defer closeStore()

	data, err := repo.ExportJSON()
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// Import merges an export document into the configured store.
func Import(ctx context.Context, data []byte, importOpts models.ImportOptions, opts ...Option) (models.ImportResult, error) {
	app, err := newApplication(opts)
	if err != nil {
		return models.ImportResult{}, err
	}
	logger := app.logger()

	repo, closeStore, err := app.openRepository(logger)
	if err != nil {
		return models.ImportResult{}, err
	}
	defer closeStore()

	return repo.Import(data, importOpts)
}
