package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config contains all runtime settings for the voice-agent companion service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	LiveKitHost      string
	LiveKitAPIKey    string
	LiveKitAPISecret string
	TokenTTL         time.Duration

	// MediaProvider selects the realtime client backend: livekit, mock or auto.
	MediaProvider      string
	PollInterval       time.Duration
	SignalPingInterval time.Duration

	// StorageURL selects the persistence backend by scheme; empty keeps
	// state in memory only.
	StorageURL       string
	StorageNamespace string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "parley"),
		// Placeholder host mirrors a fresh LiveKit Cloud project URL; the
		// token route still answers, the client just cannot join anything real.
		LiveKitHost:        envOrDefault("LIVEKIT_HOST", "wss://your-project-1234.livekit.cloud"),
		LiveKitAPIKey:      stringsTrimSpace("LIVEKIT_API_KEY"),
		LiveKitAPISecret:   stringsTrimSpace("LIVEKIT_API_SECRET"),
		MediaProvider:      envOrDefault("MEDIA_PROVIDER", "auto"),
		StorageURL:         stringsTrimSpace("STORAGE_URL"),
		StorageNamespace:   envOrDefault("STORAGE_NAMESPACE", "livekit-agent-storage"),
		TokenTTL:           24 * time.Hour,
		PollInterval:       100 * time.Millisecond,
		SignalPingInterval: 15 * time.Second,
		ShutdownTimeout:    15 * time.Second,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.TokenTTL, err = durationFromEnv("TOKEN_TTL", cfg.TokenTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.PollInterval, err = durationFromEnv("APP_POLL_INTERVAL", cfg.PollInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.SignalPingInterval, err = durationFromEnv("APP_SIGNAL_PING_INTERVAL", cfg.SignalPingInterval)
	if err != nil {
		return Config{}, err
	}

	if cfg.TokenTTL < time.Minute {
		return Config{}, fmt.Errorf("TOKEN_TTL must be at least 1m")
	}
	if cfg.PollInterval <= 0 {
		return Config{}, fmt.Errorf("APP_POLL_INTERVAL must be positive")
	}
	if cfg.SignalPingInterval < time.Second {
		return Config{}, fmt.Errorf("APP_SIGNAL_PING_INTERVAL must be at least 1s")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.MediaProvider)) {
	case "auto", "livekit", "mock":
	default:
		return Config{}, fmt.Errorf("invalid MEDIA_PROVIDER: %q (expected auto|livekit|mock)", cfg.MediaProvider)
	}
	if strings.TrimSpace(cfg.StorageNamespace) == "" {
		return Config{}, fmt.Errorf("STORAGE_NAMESPACE must not be empty")
	}

	return cfg, nil
}

// SigningConfigured reports whether the token issuer has credentials.
// Their absence is a hard configuration error at token time, not at boot,
// so the rest of the service can still run locally.
func (c Config) SigningConfigured() bool {
	return c.LiveKitAPIKey != "" && c.LiveKitAPISecret != ""
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}
