package goCooldown

import (
	"errors"
	"time"
)

// Config defines the complete governor configuration. Values are injected
// at build time and treated as immutable afterwards.
type Config struct {
	Cooldown   CooldownConfig
	Visibility VisibilityConfig
	Probe      ProbeConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
COOLDOWN CONFIG
====================================
*/

// CooldownConfig carries the throttle constants the client enforces
// between dispatches, plus the server-side contract it consumes.
type CooldownConfig struct {
	// CooldownPeriod is the mandatory wait between consecutive
	// dispatches, enforced client-side.
	CooldownPeriod time.Duration
	// ResetPeriod is the longer window after which the server's attempt
	// counter resets. The client never enforces it; it is surfaced so
	// callers can render the exhausted state sensibly.
	ResetPeriod time.Duration
	// MaxAttempts is the server's dispatch cap within ResetPeriod.
	MaxAttempts int
	// StorageKey is the durable key holding the last-dispatch record.
	StorageKey string
}

/*
====================================
VISIBILITY CONFIG
====================================
*/

// DismissPolicy selects how long a dismissal of the throttle UI lasts.
type DismissPolicy int

const (
	// DismissSession keeps the dismissal for the lifetime of the
	// governor instance only. Default.
	DismissSession DismissPolicy = iota
	// DismissPersistent records the dismissal in the timestamp store's
	// sibling namespace so it survives a reload.
	DismissPersistent
	// DismissEphemeral drops the dismissal whenever visibility is
	// re-evaluated.
	DismissEphemeral
)

// VisibilityConfig configures the dismiss controller. Exactly one policy
// applies per governor; the dismiss key must differ from the cooldown
// storage key.
type VisibilityConfig struct {
	DismissPolicy DismissPolicy
	DismissKey    string
}

/*
====================================
PROBE CONFIG
====================================
*/

// ProbeConfig configures the advisory server limit probe consulted when
// local reconciliation reports ready.
type ProbeConfig struct {
	Enabled bool
	Timeout time.Duration
}

// AuditConfig configures the buffered audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig enables the lock-free metric counters and, optionally,
// the dispatch latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the production defaults: a 60-second cooldown,
// a one-hour attempt window of 5 dispatches, probing enabled, audit
// disabled, and metrics on.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Cooldown: CooldownConfig{
			CooldownPeriod: 60 * time.Second,
			ResetPeriod:    time.Hour,
			MaxAttempts:    5,
			StorageKey:     "gocd:dispatched_at",
		},
		Visibility: VisibilityConfig{
			DismissPolicy: DismissSession,
			DismissKey:    "gocd:dismissed",
		},
		Probe: ProbeConfig{
			Enabled: true,
			Timeout: 5 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// All fields are value types today; the clone exists so Build can
	// never alias caller-held state.
	return cfg
}

// Validate checks the configuration for internal consistency. It is
// called by Build and may be called directly.
func (c Config) Validate() error {
	if c.Cooldown.CooldownPeriod <= 0 {
		return errors.New("Cooldown CooldownPeriod must be positive")
	}
	if c.Cooldown.ResetPeriod <= 0 {
		return errors.New("Cooldown ResetPeriod must be positive")
	}
	if c.Cooldown.ResetPeriod < c.Cooldown.CooldownPeriod {
		return errors.New("Cooldown ResetPeriod must not be shorter than CooldownPeriod")
	}
	if c.Cooldown.MaxAttempts < 1 {
		return errors.New("Cooldown MaxAttempts must be at least 1")
	}
	if c.Cooldown.StorageKey == "" {
		return errors.New("Cooldown StorageKey must not be empty")
	}
	switch c.Visibility.DismissPolicy {
	case DismissSession, DismissPersistent, DismissEphemeral:
	default:
		return errors.New("Visibility DismissPolicy is not a known policy")
	}
	if c.Visibility.DismissKey == "" {
		return errors.New("Visibility DismissKey must not be empty")
	}
	if c.Visibility.DismissKey == c.Cooldown.StorageKey {
		return errors.New("Visibility DismissKey must differ from Cooldown StorageKey")
	}
	if c.Probe.Timeout < 0 {
		return errors.New("Probe Timeout must not be negative")
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return errors.New("Audit BufferSize must not be negative")
	}
	return nil
}
