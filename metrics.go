package goCooldown

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one governor counter or histogram.
type MetricID uint16

const (
	// MetricDispatchSuccess counts dispatches the server accepted.
	MetricDispatchSuccess MetricID = iota
	// MetricDispatchRateLimited counts dispatches rejected inside the
	// short cooldown window.
	MetricDispatchRateLimited
	// MetricAttemptsExhausted counts dispatches rejected because the
	// long attempt window was spent.
	MetricAttemptsExhausted
	// MetricDispatchRollback counts optimistic cooldowns rolled back
	// after transport or generic server failures.
	MetricDispatchRollback
	// MetricCooldownStarted counts cooldown windows engaged, local or
	// server-derived.
	MetricCooldownStarted
	// MetricCooldownElapsed counts countdowns that ran to zero.
	MetricCooldownElapsed
	// MetricProbeLimited counts probes that surfaced a server-side
	// cooldown invisible locally.
	MetricProbeLimited
	// MetricProbeFailure counts probe errors swallowed fail-open.
	MetricProbeFailure
	// MetricStoreFailure counts timestamp store calls that degraded to
	// session-only tracking.
	MetricStoreFailure
	// MetricDismiss counts throttle UI dismissals.
	MetricDismiss
	// MetricRestore counts dismissal reversals.
	MetricRestore
	// MetricDispatchLatency is the dispatch round-trip histogram.
	MetricDispatchLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters for governor activity. All methods
// are safe for concurrent use and are no-ops on a nil receiver.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a Metrics registry per the given configuration.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are collected.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the dispatch latency histogram is
// collected.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc increments the counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a dispatch round-trip duration.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricDispatchLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and histogram.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricDispatchLatency].buckets[i])
		}
		s.Histograms[MetricDispatchLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
