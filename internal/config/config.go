package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pingdeckhq/engine/pkg/types"
)

const (
	envConfigPath     = "PINGDECK_CONFIG"
	DefaultConfigPath = "/etc/pingdeck/engine.yaml"
)

type Config struct {
	Engine         EngineConfig         `yaml:"engine"`
	Probes         ProbeConfig          `yaml:"probes"`
	RateGovernance RateGovernanceConfig `yaml:"rate_governance"`
	Session        SessionConfig        `yaml:"session"`
}

// EngineConfig tunes the round scheduler and the concurrency limiter.
// Durations are expressed in milliseconds, matching the wire style of
// the session section.
type EngineConfig struct {
	MaxInFlight           int `yaml:"max_in_flight"`
	JitterFloorMillis     int `yaml:"jitter_floor_ms"`
	PerTargetJitterMillis int `yaml:"per_target_jitter_ms"`
	StaggerMinMillis      int `yaml:"stagger_min_ms"`
	StaggerMaxMillis      int `yaml:"stagger_max_ms"`
	MinRoundDelayMillis   int `yaml:"min_round_delay_ms"`
	WatchdogBufferMillis  int `yaml:"watchdog_buffer_ms"`
}

func (c EngineConfig) JitterFloor() time.Duration {
	return time.Duration(c.JitterFloorMillis) * time.Millisecond
}

func (c EngineConfig) PerTargetJitter() time.Duration {
	return time.Duration(c.PerTargetJitterMillis) * time.Millisecond
}

func (c EngineConfig) StaggerMin() time.Duration {
	return time.Duration(c.StaggerMinMillis) * time.Millisecond
}

func (c EngineConfig) StaggerMax() time.Duration {
	return time.Duration(c.StaggerMaxMillis) * time.Millisecond
}

func (c EngineConfig) MinRoundDelay() time.Duration {
	return time.Duration(c.MinRoundDelayMillis) * time.Millisecond
}

func (c EngineConfig) WatchdogBuffer() time.Duration {
	return time.Duration(c.WatchdogBufferMillis) * time.Millisecond
}

type ProbeConfig struct {
	PingBinary  string `yaml:"ping_binary"`
	Ping6Binary string `yaml:"ping6_binary"`
}

type RateGovernanceConfig struct {
	Enabled      bool    `yaml:"enabled"`
	GlobalPPSCap float64 `yaml:"global_pps_cap"`
	Burst        int     `yaml:"burst"`
}

// SessionConfig holds the defaults applied when the caller leaves a
// session parameter unset.
type SessionConfig struct {
	TimeoutMillis int `yaml:"timeout_ms"`
	IntervalSec   int `yaml:"interval_sec"`
	PacketSize    int `yaml:"packet_size"`
}

func Default() Config {
	return Config{
		Engine: EngineConfig{
			MaxInFlight:           64,
			JitterFloorMillis:     2000,
			PerTargetJitterMillis: 16,
			StaggerMinMillis:      1,
			StaggerMaxMillis:      40,
			MinRoundDelayMillis:   50,
			WatchdogBufferMillis:  500,
		},
		Probes: ProbeConfig{
			PingBinary:  "ping",
			Ping6Binary: "ping6",
		},
		Session: SessionConfig{
			TimeoutMillis: 1000,
			IntervalSec:   2,
			PacketSize:    56,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return cfg, fmt.Errorf("open config %q: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func LoadFromEnv() (Config, error) {
	path := os.Getenv(envConfigPath)
	if path == "" {
		path = DefaultConfigPath
	}
	return Load(path)
}

// SessionDefaults converts the session section into the engine's
// run-time configuration type.
func (c Config) SessionDefaults() types.SessionConfig {
	return types.SessionConfig{
		Timeout:    time.Duration(c.Session.TimeoutMillis) * time.Millisecond,
		Interval:   time.Duration(c.Session.IntervalSec) * time.Second,
		PacketSize: c.Session.PacketSize,
	}.Normalized()
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Engine.MaxInFlight <= 0 {
		c.Engine.MaxInFlight = def.Engine.MaxInFlight
	}
	if c.Engine.JitterFloorMillis <= 0 {
		c.Engine.JitterFloorMillis = def.Engine.JitterFloorMillis
	}
	if c.Engine.PerTargetJitterMillis <= 0 {
		c.Engine.PerTargetJitterMillis = def.Engine.PerTargetJitterMillis
	}
	if c.Engine.StaggerMinMillis <= 0 {
		c.Engine.StaggerMinMillis = def.Engine.StaggerMinMillis
	}
	if c.Engine.StaggerMaxMillis <= c.Engine.StaggerMinMillis {
		c.Engine.StaggerMaxMillis = def.Engine.StaggerMaxMillis
	}
	if c.Engine.MinRoundDelayMillis <= 0 {
		c.Engine.MinRoundDelayMillis = def.Engine.MinRoundDelayMillis
	}
	if c.Engine.WatchdogBufferMillis <= 0 {
		c.Engine.WatchdogBufferMillis = def.Engine.WatchdogBufferMillis
	}
	if c.Probes.PingBinary == "" {
		c.Probes.PingBinary = def.Probes.PingBinary
	}
	if c.Probes.Ping6Binary == "" {
		c.Probes.Ping6Binary = def.Probes.Ping6Binary
	}
	if c.Session.TimeoutMillis <= 0 {
		c.Session.TimeoutMillis = def.Session.TimeoutMillis
	}
	if c.Session.IntervalSec <= 0 {
		c.Session.IntervalSec = def.Session.IntervalSec
	}
	if c.Session.PacketSize <= 0 {
		c.Session.PacketSize = def.Session.PacketSize
	}
}
