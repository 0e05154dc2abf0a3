package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesFileValues(t *testing.T) {
	path := writeConfig(t, `
engine:
  max_in_flight: 80
  jitter_floor_ms: 3000
  per_target_jitter_ms: 14
probes:
  ping_binary: /usr/bin/ping
rate_governance:
  enabled: true
  global_pps_cap: 200
session:
  timeout_ms: 1500
  interval_sec: 5
  packet_size: 120
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Engine.MaxInFlight != 80 {
		t.Fatalf("unexpected max_in_flight: %d", cfg.Engine.MaxInFlight)
	}
	if cfg.Engine.JitterFloor() != 3*time.Second {
		t.Fatalf("unexpected jitter_floor: %s", cfg.Engine.JitterFloor())
	}
	if cfg.Engine.PerTargetJitter() != 14*time.Millisecond {
		t.Fatalf("unexpected per_target_jitter: %s", cfg.Engine.PerTargetJitter())
	}
	if cfg.Probes.PingBinary != "/usr/bin/ping" {
		t.Fatalf("unexpected ping binary: %s", cfg.Probes.PingBinary)
	}
	if !cfg.RateGovernance.Enabled || cfg.RateGovernance.GlobalPPSCap != 200 {
		t.Fatalf("unexpected rate governance: %+v", cfg.RateGovernance)
	}

	session := cfg.SessionDefaults()
	if session.Timeout != 1500*time.Millisecond || session.Interval != 5*time.Second || session.PacketSize != 120 {
		t.Fatalf("unexpected session defaults: %+v", session)
	}
}

func TestLoadFillsMissingSectionsWithDefaults(t *testing.T) {
	path := writeConfig(t, "engine:\n  max_in_flight: 50\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	def := Default()
	if cfg.Engine.MaxInFlight != 50 {
		t.Fatalf("explicit value lost: %d", cfg.Engine.MaxInFlight)
	}
	if cfg.Engine.JitterFloorMillis != def.Engine.JitterFloorMillis {
		t.Fatalf("missing jitter_floor must default: %d", cfg.Engine.JitterFloorMillis)
	}
	if cfg.Probes.Ping6Binary != def.Probes.Ping6Binary {
		t.Fatalf("missing ping6 binary must default: %s", cfg.Probes.Ping6Binary)
	}
	if cfg.Session.PacketSize != def.Session.PacketSize {
		t.Fatalf("missing packet size must default: %d", cfg.Session.PacketSize)
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "engine: [not a mapping")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadFromEnvHonorsOverride(t *testing.T) {
	path := writeConfig(t, "session:\n  interval_sec: 9\n")
	t.Setenv("PINGDECK_CONFIG", path)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("load from env: %v", err)
	}
	if cfg.Session.IntervalSec != 9 {
		t.Fatalf("unexpected interval: %d", cfg.Session.IntervalSec)
	}
}
