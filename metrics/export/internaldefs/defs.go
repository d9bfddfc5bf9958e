package internaldefs

import (
	goCooldown "github.com/MrEthical07/goCooldown"
)

// CounterDef ties a core MetricID to its stable exported name.
type CounterDef struct {
	ID   goCooldown.MetricID
	Name string
	Help string
}

// HistogramDef ties a core histogram MetricID to its stable exported name.
type HistogramDef struct {
	ID   goCooldown.MetricID
	Name string
	Help string
}

// CounterDefs is the shared counter catalog for all exporters.
var CounterDefs = []CounterDef{
	{ID: goCooldown.MetricDispatchSuccess, Name: "gocooldown_dispatch_success_total", Help: "Dispatches accepted by the server."},
	{ID: goCooldown.MetricDispatchRateLimited, Name: "gocooldown_dispatch_rate_limited_total", Help: "Dispatches rejected inside the short cooldown window."},
	{ID: goCooldown.MetricAttemptsExhausted, Name: "gocooldown_attempts_exhausted_total", Help: "Dispatches rejected because the long attempt window was spent."},
	{ID: goCooldown.MetricDispatchRollback, Name: "gocooldown_dispatch_rollback_total", Help: "Optimistic cooldowns rolled back after dispatch failures."},
	{ID: goCooldown.MetricCooldownStarted, Name: "gocooldown_cooldown_started_total", Help: "Cooldown windows engaged, local or server-derived."},
	{ID: goCooldown.MetricCooldownElapsed, Name: "gocooldown_cooldown_elapsed_total", Help: "Countdowns that ran to zero."},
	{ID: goCooldown.MetricProbeLimited, Name: "gocooldown_probe_limited_total", Help: "Probes that surfaced a server-side cooldown."},
	{ID: goCooldown.MetricProbeFailure, Name: "gocooldown_probe_failure_total", Help: "Probe errors swallowed fail-open."},
	{ID: goCooldown.MetricStoreFailure, Name: "gocooldown_store_failure_total", Help: "Timestamp store calls degraded to session-only tracking."},
	{ID: goCooldown.MetricDismiss, Name: "gocooldown_dismiss_total", Help: "Throttle UI dismissals."},
	{ID: goCooldown.MetricRestore, Name: "gocooldown_restore_total", Help: "Dismissal reversals."},
}

// HistogramDefs is the shared histogram catalog for all exporters.
var HistogramDefs = []HistogramDef{
	{ID: goCooldown.MetricDispatchLatency, Name: "gocooldown_dispatch_latency_seconds", Help: "Dispatch round-trip latency histogram."},
}

// HistogramBounds are the upper bucket bounds in Prometheus le form.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix mirrors HistogramBounds with characters legal in
// OpenTelemetry instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed
// bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// Prometheus histograms expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
