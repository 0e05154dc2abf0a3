package types

import "time"

// SessionState is the engine's global lifecycle state. Only the engine
// transitions it, in response to control calls or natural loop
// termination.
type SessionState string

const (
	StateStopped   SessionState = "Stopped"
	StatePinging   SessionState = "Pinging"
	StatePaused    SessionState = "Paused"
	StateCompleted SessionState = "Completed"
	StateCleared   SessionState = "Cleared"
)

const (
	DefaultTimeout    = time.Second
	DefaultInterval   = 2 * time.Second
	DefaultPacketSize = 56
)

// SessionConfig is the immutable per-run snapshot captured at start.
// A resume reuses the configuration of the run being resumed.
type SessionConfig struct {
	Timeout    time.Duration `json:"timeout" yaml:"timeout"`
	Interval   time.Duration `json:"interval" yaml:"interval"`
	PacketSize int           `json:"packet_size" yaml:"packet_size"`
}

// Normalized returns a copy with zero or negative fields replaced by
// defaults.
func (c SessionConfig) Normalized() SessionConfig {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.PacketSize <= 0 {
		c.PacketSize = DefaultPacketSize
	}
	return c
}

// Totals are the session-wide aggregate counters derived from the
// target registry, with transient and cancellation statuses filtered.
type Totals struct {
	Reachable int `json:"reachable" yaml:"reachable"`
	Failed    int `json:"failed" yaml:"failed"`
}

// SessionSnapshot is the read model handed to the view layer.
type SessionSnapshot struct {
	State   SessionState     `json:"state" yaml:"state"`
	Config  SessionConfig    `json:"config" yaml:"config"`
	Totals  Totals           `json:"totals" yaml:"totals"`
	Targets []TargetSnapshot `json:"targets" yaml:"targets"`
}
