package config

import (
	"testing"
	"time"
)

func TestLoadServerDefaults(t *testing.T) {
	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.SessionIdleTTL != 6*time.Hour {
		t.Fatalf("SessionIdleTTL = %v, want 6h", cfg.SessionIdleTTL)
	}
	if cfg.JanitorInterval != time.Minute {
		t.Fatalf("JanitorInterval = %v, want 1m", cfg.JanitorInterval)
	}
	if cfg.TaskCatalogWatch {
		t.Fatal("TaskCatalogWatch should default to false")
	}
}

func TestLoadServerParseTypes(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("TASK_CATALOG_PATH", "/etc/tasks.yaml")
	t.Setenv("TASK_CATALOG_WATCH", "true")
	t.Setenv("SESSION_IDLE_TTL", "90m")
	t.Setenv("EMPTY_SESSION_GRACE", "5s")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.HTTPAddr != ":9090" || cfg.TaskCatalogPath != "/etc/tasks.yaml" {
		t.Fatalf("unexpected server config: %+v", cfg)
	}
	if !cfg.TaskCatalogWatch {
		t.Fatal("TaskCatalogWatch = false, want true")
	}
	if cfg.SessionIdleTTL != 90*time.Minute {
		t.Fatalf("SessionIdleTTL = %v, want 90m", cfg.SessionIdleTTL)
	}
	if cfg.EmptySessionGrace != 5*time.Second {
		t.Fatalf("EmptySessionGrace = %v, want 5s", cfg.EmptySessionGrace)
	}
}

func TestLoadServerRejectsBadDuration(t *testing.T) {
	t.Setenv("JANITOR_INTERVAL", "soon")

	if _, err := LoadServer(); err == nil {
		t.Fatal("LoadServer() expected error, got nil")
	}
}
