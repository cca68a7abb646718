package app

import (
	"os"
	"time"
)

// Config holds all configurable parameters for the application.
type Config struct {
	Port             int
	ExpectationsPath string
	LogLevel         string

	RateLimiterTTL  time.Duration
	WatcherDebounce time.Duration

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// ConfigMapName and Namespace identify the cluster-hosted configuration
	// object used in cluster mode (spec §6); they are read from environment
	// variables, not flags, matching the reference deployment conventions.
	ConfigMapName string
	Namespace     string
}

// DefaultConfig returns a Config with the defaults documented in spec §6.
func DefaultConfig() Config {
	return Config{
		Port:             3000,
		ExpectationsPath: "expectations.json",
		LogLevel:         "info",

		RateLimiterTTL:  10 * time.Minute,
		WatcherDebounce: 500 * time.Millisecond,

		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,

		ConfigMapName: envOrDefault("CONFIG_MAP_NAME", "mimicrab-config"),
		Namespace:     envOrDefault("KUBERNETES_NAMESPACE", "default"),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
