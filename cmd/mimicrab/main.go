package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sophialabs/mimicrab/internal/app"
)

func main() {
	cfg := app.DefaultConfig()
	flag.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	flag.StringVar(&cfg.ExpectationsPath, "expectations", cfg.ExpectationsPath, "path to the expectations JSON file (file mode)")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	flag.DurationVar(&cfg.WatcherDebounce, "watch-debounce", cfg.WatcherDebounce, "debounce interval for the expectations file watcher")
	flag.DurationVar(&cfg.RateLimiterTTL, "rate-limiter-ttl", cfg.RateLimiterTTL, "idle eviction TTL for per-upstream-host proxy rate limiter buckets")
	flag.Parse()

	a, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize: %v\n", err)
		os.Exit(1)
	}

	if err := a.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
