// Package app is the thin lifecycle manager: it wires infrastructure via
// the wiring container, loads the initial expectation list, starts
// background synchronization, and serves HTTP until shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sophialabs/mimicrab/internal/infrastructure/outbound/logging"
	"github.com/sophialabs/mimicrab/internal/infrastructure/wiring"
)

// App is the top-level process: an HTTP server backed by a wiring
// Container.
type App struct {
	cfg        Config
	container  *wiring.Container
	httpServer *http.Server
}

// New constructs the application: a logger, the wiring container, and the
// HTTP server bound to cfg.Port.
func New(cfg Config) (*App, error) {
	level := parseLogLevel(cfg.LogLevel)
	logger := logging.New(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})))

	container, err := wiring.New(wiring.Params{
		ExpectationsPath: cfg.ExpectationsPath,
		WatcherDebounce:  cfg.WatcherDebounce,
		RateLimiterTTL:   cfg.RateLimiterTTL,
		ConfigMapName:    cfg.ConfigMapName,
		Namespace:        cfg.Namespace,
		Logger:           logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to wire infrastructure: %w", err)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      container.Server(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		container:  container,
		httpServer: httpServer,
	}, nil
}

// Run executes the full application lifecycle: load the initial
// expectation list, start background synchronization, serve HTTP, and
// handle graceful shutdown on SIGINT/SIGTERM or context cancellation.
func (a *App) Run(ctx context.Context) error {
	defer a.container.Close()

	logger := a.container.Logger()

	if err := a.container.LoadInitial(ctx); err != nil {
		return fmt.Errorf("failed to load initial expectations: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.container.StartWatch(ctx)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting mimicrab server", "addr", a.httpServer.Addr, "expectations", a.cfg.ExpectationsPath)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
