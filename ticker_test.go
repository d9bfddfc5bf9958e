package goCooldown

import (
	"context"
	"testing"
	"time"
)

func TestTickerElapseClearsStoreAndFiresHook(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	store := NewMemoryStore()
	cfg := testConfig()

	elapsed := make(chan struct{}, 1)
	g := newTestGovernor(t, cfg, store, clock, &scriptedDispatcher{
		script: []dispatchOutcome{
			{result: DispatchResult{OK: true}},
			{result: DispatchResult{OK: true}},
		},
	}, func(b *Builder) {
		b.WithElapsedHook(func() { elapsed <- struct{}{} })
	})
	defer g.Close()
	activated(t, g)

	if _, err := g.Trigger(ctx); err != nil {
		t.Fatalf("Trigger failed: %v", err)
	}

	// Ticks inside the window keep counting down without elapsing.
	clock.Advance(10 * time.Second)
	clock.Tick()
	select {
	case <-elapsed:
		t.Fatal("hook fired before the countdown elapsed")
	case <-time.After(20 * time.Millisecond):
	}
	if rem := g.Remaining(); rem != 35 {
		t.Fatalf("expected 35s remaining, got %d", rem)
	}

	clock.Advance(cfg.Cooldown.CooldownPeriod)
	clock.Tick()

	select {
	case <-elapsed:
	case <-time.After(2 * time.Second):
		t.Fatal("elapsed hook never fired")
	}

	waitForPhase(t, g, PhaseReady)
	if value, _ := store.Get(ctx, cfg.Cooldown.StorageKey); value != "" {
		t.Fatalf("expected elapsed cooldown to clear the store, got %q", value)
	}
	if _, err := g.Trigger(ctx); err != nil {
		t.Fatalf("expected trigger to be re-admitted, got %v", err)
	}

	snapshot := g.MetricsSnapshot()
	if snapshot.Counters[MetricCooldownElapsed] != 1 {
		t.Fatalf("expected one elapsed count, got %d", snapshot.Counters[MetricCooldownElapsed])
	}
}

func TestTickerSelfHealsAfterMissedTicks(t *testing.T) {
	// A process that slept through every tick still reports the correct
	// remaining time, because ticks only trigger re-derivation.
	ctx := context.Background()
	clock := newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	g := newTestGovernor(t, testConfig(), NewMemoryStore(), clock, &scriptedDispatcher{
		script: []dispatchOutcome{{result: DispatchResult{OK: true}}},
	})
	defer g.Close()
	activated(t, g)

	if _, err := g.Trigger(ctx); err != nil {
		t.Fatalf("Trigger failed: %v", err)
	}

	// No ticks delivered at all; remaining is still derived on read.
	clock.Advance(37 * time.Second)
	if rem := g.Remaining(); rem != 8 {
		t.Fatalf("expected 8s remaining without any ticks, got %d", rem)
	}
}

func TestCloseStopsTicker(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	g := newTestGovernor(t, testConfig(), NewMemoryStore(), clock, &scriptedDispatcher{
		script: []dispatchOutcome{{result: DispatchResult{OK: true}}},
	})
	activated(t, g)

	if _, err := g.Trigger(ctx); err != nil {
		t.Fatalf("Trigger failed: %v", err)
	}
	if clock.liveTickers() != 1 {
		t.Fatalf("expected one live ticker, got %d", clock.liveTickers())
	}

	g.Close()
	if clock.liveTickers() != 0 {
		t.Fatalf("expected ticker stopped on close, got %d live", clock.liveTickers())
	}
}

func TestRollbackStopsTicker(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	g := newTestGovernor(t, testConfig(), NewMemoryStore(), clock, &scriptedDispatcher{
		script: []dispatchOutcome{{result: DispatchResult{Reason: "unexpected status 500"}}},
	})
	defer g.Close()
	activated(t, g)

	_, _ = g.Trigger(ctx)
	if clock.liveTickers() != 0 {
		t.Fatalf("expected ticker released after rollback, got %d live", clock.liveTickers())
	}
}
