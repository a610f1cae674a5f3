package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8080")
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("TokenTTL = %v, want 24h", cfg.TokenTTL)
	}
	if cfg.PollInterval != 100*time.Millisecond {
		t.Fatalf("PollInterval = %v, want 100ms", cfg.PollInterval)
	}
	if cfg.StorageNamespace != "livekit-agent-storage" {
		t.Fatalf("StorageNamespace = %q, want %q", cfg.StorageNamespace, "livekit-agent-storage")
	}
	if cfg.MediaProvider != "auto" {
		t.Fatalf("MediaProvider = %q, want %q", cfg.MediaProvider, "auto")
	}
	if cfg.SigningConfigured() {
		t.Fatalf("SigningConfigured() = true with empty credentials")
	}
}

func TestLoadExplicitValues(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("LIVEKIT_API_KEY", "APIxyz")
	t.Setenv("LIVEKIT_API_SECRET", "shh")
	t.Setenv("APP_POLL_INTERVAL", "250ms")
	t.Setenv("MEDIA_PROVIDER", "mock")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.SigningConfigured() {
		t.Fatalf("SigningConfigured() = false with both credentials set")
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Fatalf("PollInterval = %v, want 250ms", cfg.PollInterval)
	}
	if cfg.MediaProvider != "mock" {
		t.Fatalf("MediaProvider = %q, want %q", cfg.MediaProvider, "mock")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"short token ttl", "TOKEN_TTL", "10s"},
		{"bad poll interval", "APP_POLL_INTERVAL", "not-a-duration"},
		{"unknown provider", "MEDIA_PROVIDER", "webex"},
		{"short ping interval", "APP_SIGNAL_PING_INTERVAL", "100ms"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setCoreEnvEmpty(t)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load() accepted %s=%q", tc.key, tc.value)
			}
		})
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_POLL_INTERVAL",
		"APP_SIGNAL_PING_INTERVAL",
		"LIVEKIT_HOST",
		"LIVEKIT_API_KEY",
		"LIVEKIT_API_SECRET",
		"TOKEN_TTL",
		"MEDIA_PROVIDER",
		"STORAGE_URL",
		"STORAGE_NAMESPACE",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
