package goCooldown

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsIncAndValue(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Inc(MetricDispatchSuccess)
	m.Inc(MetricDispatchSuccess)
	m.Inc(MetricCooldownStarted)

	if got := m.Value(MetricDispatchSuccess); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	if got := m.Value(MetricCooldownStarted); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if got := m.Value(MetricProbeLimited); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestMetricsDisabledIsNoOp(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricDispatchSuccess)

	if got := m.Value(MetricDispatchSuccess); got != 0 {
		t.Fatalf("expected disabled metrics to stay zero, got %d", got)
	}

	snapshot := m.Snapshot()
	if len(snapshot.Counters) != 0 {
		t.Fatalf("expected empty snapshot, got %d counters", len(snapshot.Counters))
	}
}

func TestMetricsNilReceiver(t *testing.T) {
	var m *Metrics
	m.Inc(MetricDispatchSuccess)
	m.Observe(MetricDispatchLatency, time.Millisecond)
	if m.Value(MetricDispatchSuccess) != 0 {
		t.Fatal("nil receiver must read zero")
	}
	if m.Enabled() || m.LatencyEnabled() {
		t.Fatal("nil receiver must report disabled")
	}
}

func TestMetricsObserveBuckets(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	m.Observe(MetricDispatchLatency, 3*time.Millisecond)
	m.Observe(MetricDispatchLatency, 60*time.Millisecond)
	m.Observe(MetricDispatchLatency, 2*time.Second)

	buckets := m.Snapshot().Histograms[MetricDispatchLatency]
	if len(buckets) != histBucketCount {
		t.Fatalf("expected %d buckets, got %d", histBucketCount, len(buckets))
	}
	if buckets[0] != 1 {
		t.Fatalf("expected 3ms in first bucket, got %v", buckets)
	}
	if buckets[4] != 1 {
		t.Fatalf("expected 60ms in the le=100ms bucket, got %v", buckets)
	}
	if buckets[7] != 1 {
		t.Fatalf("expected 2s in the overflow bucket, got %v", buckets)
	}
}

func TestMetricsObserveIgnoresCounterIDs(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	m.Observe(MetricDispatchSuccess, time.Millisecond)

	if len(m.Snapshot().Histograms) != 1 {
		t.Fatal("expected only the latency histogram in snapshots")
	}
	for _, v := range m.Snapshot().Histograms[MetricDispatchLatency] {
		if v != 0 {
			t.Fatal("expected no samples recorded for a counter id")
		}
	}
}

func TestMetricsSnapshotIsCopy(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricDispatchSuccess)

	snapshot := m.Snapshot()
	m.Inc(MetricDispatchSuccess)

	if snapshot.Counters[MetricDispatchSuccess] != 1 {
		t.Fatalf("expected snapshot frozen at 1, got %d", snapshot.Counters[MetricDispatchSuccess])
	}
}

func TestMetricsConcurrentInc(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const workers = 16
	const perWorker = 1000

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				m.Inc(MetricDispatchSuccess)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricDispatchSuccess); got != workers*perWorker {
		t.Fatalf("expected %d, got %d", workers*perWorker, got)
	}
}
