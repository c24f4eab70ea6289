package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.Mode != "release" {
		t.Errorf("Server.Mode = %q, want release", cfg.Server.Mode)
	}
	if !cfg.Browser.Headless {
		t.Error("Browser.Headless = false, want true")
	}
	if cfg.Browser.MaxPages != 10 {
		t.Errorf("Browser.MaxPages = %d, want 10", cfg.Browser.MaxPages)
	}
	if cfg.Fetch.DefaultTimeout != 30*time.Second {
		t.Errorf("Fetch.DefaultTimeout = %v, want 30s", cfg.Fetch.DefaultTimeout)
	}
	if cfg.Fetch.MaxTimeout != 120*time.Second {
		t.Errorf("Fetch.MaxTimeout = %v, want 120s", cfg.Fetch.MaxTimeout)
	}
	if cfg.Executor.MaxWorkers != 8 {
		t.Errorf("Executor.MaxWorkers = %d, want 8", cfg.Executor.MaxWorkers)
	}
	if got := cfg.Browser.BlockedResourceTypes; len(got) != 4 || got[0] != "Image" {
		t.Errorf("Browser.BlockedResourceTypes = %v", got)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HARVEST_PORT", "9090")
	t.Setenv("HARVEST_HEADLESS", "false")
	t.Setenv("HARVEST_DEFAULT_TIMEOUT", "45s")
	t.Setenv("HARVEST_HOST_RPS", "0.5")
	t.Setenv("HARVEST_API_KEYS", "key-a, key-b ,")
	t.Setenv("HARVEST_LOG_FORMAT", "text")

	cfg := Load()

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Browser.Headless {
		t.Error("Browser.Headless = true, want false")
	}
	if cfg.Fetch.DefaultTimeout != 45*time.Second {
		t.Errorf("Fetch.DefaultTimeout = %v, want 45s", cfg.Fetch.DefaultTimeout)
	}
	if cfg.Fetch.HostRPS != 0.5 {
		t.Errorf("Fetch.HostRPS = %v, want 0.5", cfg.Fetch.HostRPS)
	}
	if len(cfg.Auth.APIKeys) != 2 || cfg.Auth.APIKeys[1] != "key-b" {
		t.Errorf("Auth.APIKeys = %v", cfg.Auth.APIKeys)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Log.Format = %q, want text", cfg.Log.Format)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("HARVEST_PORT", "not-a-number")
	t.Setenv("HARVEST_HEADLESS", "maybe")
	t.Setenv("HARVEST_DEFAULT_TIMEOUT", "soon")

	cfg := Load()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default 8080", cfg.Server.Port)
	}
	if !cfg.Browser.Headless {
		t.Error("Browser.Headless should fall back to true")
	}
	if cfg.Fetch.DefaultTimeout != 30*time.Second {
		t.Errorf("Fetch.DefaultTimeout = %v, want default 30s", cfg.Fetch.DefaultTimeout)
	}
}
