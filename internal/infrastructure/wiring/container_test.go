package wiring_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sophialabs/mimicrab/internal/infrastructure/outbound/logging"
	"github.com/sophialabs/mimicrab/internal/infrastructure/wiring"
	"log/slog"
	"io"
)

func noopLogger() *logging.SlogLogger {
	return logging.New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func validParams(t *testing.T) wiring.Params {
	t.Helper()
	dir := t.TempDir()
	return wiring.Params{
		ExpectationsPath: filepath.Join(dir, "expectations.json"),
		WatcherDebounce:  50 * time.Millisecond,
		RateLimiterTTL:   5 * time.Minute,
		ConfigMapName:    "mimicrab-config",
		Namespace:        "default",
		Logger:           noopLogger(),
	}
}

func TestNew_Success(t *testing.T) {
	c, err := wiring.New(validParams(t))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	if c.Logger() == nil {
		t.Error("Logger() returned nil")
	}
	if c.Server() == nil {
		t.Error("Server() returned nil")
	}
}

func TestNew_LoadInitialOnMissingFileStartsEmpty(t *testing.T) {
	c, err := wiring.New(validParams(t))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	if err := c.LoadInitial(context.Background()); err != nil {
		t.Fatalf("LoadInitial failed on missing file: %v", err)
	}
}

func TestNew_LoggerIsPassedThrough(t *testing.T) {
	p := validParams(t)
	logger := noopLogger()
	p.Logger = logger

	c, err := wiring.New(p)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	if c.Logger() != logger {
		t.Error("Logger() does not return the same logger instance passed in Params")
	}
}

func TestClose_IsIdempotent(t *testing.T) {
	c, err := wiring.New(validParams(t))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	c.Close()
	c.Close()
}

func TestStartWatch_FileModeDoesNotPanic(t *testing.T) {
	c, err := wiring.New(validParams(t))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.StartWatch(ctx)
}
