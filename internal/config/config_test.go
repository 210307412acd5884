package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := defaults()

	if cfg.Orchestrator.Mode != "hybrid" {
		t.Errorf("expected default mode hybrid, got %s", cfg.Orchestrator.Mode)
	}
	if cfg.Orchestrator.BatchSize != 10 {
		t.Errorf("expected batch size 10, got %d", cfg.Orchestrator.BatchSize)
	}
	if cfg.Limits.Base.MaxConcurrentTasks != 5 {
		t.Errorf("expected base concurrency 5, got %d", cfg.Limits.Base.MaxConcurrentTasks)
	}
	if cfg.Health.HeartbeatTimeout != 300*time.Second {
		t.Errorf("expected heartbeat timeout 300s, got %v", cfg.Health.HeartbeatTimeout)
	}
	if cfg.Health.Interval != 10*time.Second {
		t.Errorf("expected health interval 10s, got %v", cfg.Health.Interval)
	}
	if cfg.Coordination.Window != 10*time.Second {
		t.Errorf("expected coordination window 10s, got %v", cfg.Coordination.Window)
	}
	if cfg.NATS.Port != 4222 {
		t.Errorf("expected nats port 4222, got %d", cfg.NATS.Port)
	}
	if cfg.Web.Port != 8080 {
		t.Errorf("expected web port 8080, got %d", cfg.Web.Port)
	}
	if !cfg.Web.Enabled {
		t.Error("expected web enabled by default")
	}
	if cfg.Store.Path != "data/nexord.db" {
		t.Errorf("expected store path data/nexord.db, got %s", cfg.Store.Path)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	// Point config to a non-existent file so we use defaults
	t.Setenv("NEXORD_CONFIG", "/nonexistent/config.yaml")
	t.Setenv("NEXORD_MODE", "competitive")
	t.Setenv("NEXORD_WEB_PORT", "9090")
	t.Setenv("NEXORD_NATS_PORT", "14222")
	t.Setenv("NEXORD_STORE_PATH", "/tmp/nexord-test.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Orchestrator.Mode != "competitive" {
		t.Errorf("expected mode competitive, got %s", cfg.Orchestrator.Mode)
	}
	if cfg.Web.Port != 9090 {
		t.Errorf("expected web port 9090, got %d", cfg.Web.Port)
	}
	if cfg.NATS.Port != 14222 {
		t.Errorf("expected nats port 14222, got %d", cfg.NATS.Port)
	}
	if cfg.Store.Path != "/tmp/nexord-test.db" {
		t.Errorf("expected store path override, got %s", cfg.Store.Path)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nexord.yaml")
	data := `
orchestrator:
  mode: collaborative
  batch_size: 4
agents:
  - type: analysis
    capabilities: [market_analysis]
web:
  enabled: false
  port: 9999
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("NEXORD_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Orchestrator.Mode != "collaborative" {
		t.Errorf("expected mode collaborative, got %s", cfg.Orchestrator.Mode)
	}
	if cfg.Orchestrator.BatchSize != 4 {
		t.Errorf("expected batch size 4, got %d", cfg.Orchestrator.BatchSize)
	}
	if len(cfg.Agents) != 1 || cfg.Agents[0].Type != "analysis" {
		t.Errorf("expected one analysis agent, got %+v", cfg.Agents)
	}
	if cfg.Web.Enabled {
		t.Error("expected web disabled")
	}
	// Untouched sections keep their defaults
	if cfg.NATS.Port != 4222 {
		t.Errorf("expected default nats port, got %d", cfg.NATS.Port)
	}
}

func TestLoadExpandsEnvInYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nexord.yaml")
	data := "store:\n  path: ${TEST_DB_DIR}/nexord.db\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("NEXORD_CONFIG", path)
	t.Setenv("TEST_DB_DIR", "/var/lib/nexord")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.Path != "/var/lib/nexord/nexord.db" {
		t.Errorf("expected expanded path, got %s", cfg.Store.Path)
	}
}

func TestLoadRejectsBadMode(t *testing.T) {
	t.Setenv("NEXORD_CONFIG", "/nonexistent/config.yaml")
	t.Setenv("NEXORD_MODE", "chaotic")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestLimitsFor(t *testing.T) {
	limits := defaults().Limits

	base := limits.LimitsFor("unknown_type")
	if base.MaxConcurrentTasks != 5 || base.MaxMemoryMB != 1024 {
		t.Errorf("unknown type should get base limits, got %+v", base)
	}

	decision := limits.LimitsFor("decision")
	if decision.MaxConcurrentTasks != 3 {
		t.Errorf("expected decision concurrency 3, got %d", decision.MaxConcurrentTasks)
	}
	if decision.MaxMemoryMB != 2048 {
		t.Errorf("expected decision memory 2048, got %v", decision.MaxMemoryMB)
	}
	// Fields the override leaves at zero inherit the base
	if decision.MaxProcessingTime != 60*time.Second {
		t.Errorf("expected inherited processing time, got %v", decision.MaxProcessingTime)
	}

	monitoring := limits.LimitsFor("monitoring")
	if monitoring.MaxConcurrentTasks != 20 || monitoring.MaxProcessingTime != 5*time.Second {
		t.Errorf("expected monitoring overrides, got %+v", monitoring)
	}
	if monitoring.MaxMemoryMB != 1024 {
		t.Errorf("expected inherited memory limit, got %v", monitoring.MaxMemoryMB)
	}
}
