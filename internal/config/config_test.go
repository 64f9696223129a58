package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTPPort != 56234 {
		t.Errorf("expected default port 56234, got %d", cfg.HTTPPort)
	}
	if cfg.SweepInterval != time.Minute {
		t.Errorf("expected 1m sweep interval, got %v", cfg.SweepInterval)
	}
	if cfg.RequestTTL != 30*24*time.Hour {
		t.Errorf("expected 30 day ttl, got %v", cfg.RequestTTL)
	}
	if cfg.StrictTokens {
		t.Error("expected lax token matching by default")
	}
	if !cfg.MCPEnabled {
		t.Error("expected MCP enabled by default")
	}
	if cfg.BaseURL() != "http://localhost:56234" {
		t.Errorf("unexpected base url %q", cfg.BaseURL())
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ECOSWAP_HTTP_PORT", "8081")
	t.Setenv("ECOSWAP_STRICT_TOKENS", "true")
	t.Setenv("ECOSWAP_REQUEST_TTL", "48h")
	t.Setenv("ECOSWAP_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTPPort != 8081 || !cfg.StrictTokens || cfg.RequestTTL != 48*time.Hour {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.Log == nil || cfg.Log.Level != "debug" {
		t.Errorf("expected log level debug, got %+v", cfg.Log)
	}
}

func TestLoadFromDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("ECOSWAP_SOURCE_NAME=from-file\n"), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("ECOSWAP_SOURCE_NAME") })

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SourceName != "from-file" {
		t.Errorf("expected source name from .env, got %q", cfg.SourceName)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("ECOSWAP_HTTP_PORT", "70000")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("expected error for out of range port")
	}
}
