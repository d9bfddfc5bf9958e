package goCooldown

import (
	"context"
	"sync"
	"time"

	"github.com/MrEthical07/goCooldown/internal/record"
)

// Governor throttles a rate-limited, side-effecting server action and
// keeps the user-visible cooldown consistent across restarts and
// authoritative server-side limits.
//
// All state transitions are serialized on one mutex: ticking,
// reconciliation, and dispatch reconciliation never interleave, so a
// read always observes the most recently applied write. Network calls
// and the 1-second tick happen outside the lock; results that arrive
// after Close are discarded via an epoch check rather than applied to a
// dead governor.
type Governor struct {
	config     Config
	store      *failSoftStore
	dispatcher ActionDispatcher
	prober     StatusProber
	clock      Clock
	eligible   func() bool
	elapsedFns []func()

	audit   *auditDispatcher
	metrics *Metrics

	mu           sync.Mutex
	activated    bool
	closed       bool
	epoch        uint64
	inFlight     bool
	dispatchedAt time.Time
	remaining    int
	resetAt      time.Time
	dismissed    bool
	ticker       Ticker
	tickerStop   chan struct{}
}

// Activate performs the initial reconciliation: it loads the persisted
// dispatch record, derives the countdown from the wall clock, clears
// records that have already elapsed, and — only when locally ready —
// consults the probe once for server-enforced limits not visible
// locally. It returns the reconciled state.
func (g *Governor) Activate(ctx context.Context) (State, error) {
	if g == nil || g.dispatcher == nil {
		return State{}, ErrGovernorNotReady
	}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return State{}, ErrGovernorClosed
	}
	g.activated = true
	now := g.clock.Now()

	if g.config.Visibility.DismissPolicy == DismissPersistent {
		value, ok := g.store.get(ctx, g.config.Visibility.DismissKey)
		g.dismissed = ok && value == dismissedMarker
	}

	key := g.config.Cooldown.StorageKey
	if raw, ok := g.store.get(ctx, key); ok {
		rec, err := record.Decode(raw)
		if err != nil {
			// A record we cannot read is treated as absent.
			g.store.remove(ctx, key)
		} else {
			rem := remainingSeconds(now, rec.DispatchedAt, g.config.Cooldown.CooldownPeriod)
			if rem > 0 {
				g.dispatchedAt = rec.DispatchedAt
				g.remaining = rem
				g.startTickerLocked()
			} else {
				g.store.remove(ctx, key)
			}
		}
	}

	ready := g.remaining == 0 && g.resetAt.IsZero()
	epoch := g.epoch
	g.mu.Unlock()

	g.emitAudit(ctx, auditEventActivate, true, "", nil, nil)

	if ready {
		g.probeOnce(ctx, epoch)
	}

	return g.State(), nil
}

// Remaining reports the current countdown in whole seconds, recomputed
// from the wall clock. Zero means a trigger is permitted as far as the
// short cooldown is concerned.
func (g *Governor) Remaining() int {
	if g == nil {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.remainingLocked(g.clock.Now())
}

// State returns a snapshot of the governor. Reading state re-evaluates
// visibility, which under the ephemeral dismiss policy also resets the
// dismissal.
func (g *Governor) State() State {
	if g == nil {
		return State{}
	}
	visible := g.Visible()

	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.clock.Now()
	g.expireExhaustionLocked(now)
	g.remainingLocked(now)
	st := g.stateLocked()
	st.Visible = visible
	return st
}

// Close releases the ticker and the audit dispatcher and bumps the
// epoch so in-flight dispatch or probe results are discarded instead of
// mutating a dead governor. Close is idempotent.
func (g *Governor) Close() {
	if g == nil {
		return
	}
	g.mu.Lock()
	if !g.closed {
		g.closed = true
		g.epoch++
		g.stopTickerLocked()
	}
	g.mu.Unlock()

	if g.audit != nil {
		g.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded under
// backpressure.
func (g *Governor) AuditDropped() uint64 {
	if g == nil || g.audit == nil {
		return 0
	}
	return g.audit.Dropped()
}

// MetricsSnapshot copies the governor's counters and histograms.
func (g *Governor) MetricsSnapshot() MetricsSnapshot {
	if g == nil || g.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return g.metrics.Snapshot()
}

// remainingLocked recomputes the countdown from the wall clock. The
// derived value is cached only as an optimization; the persisted
// timestamp stays the single source of truth, so dropped ticks cannot
// cause drift.
func (g *Governor) remainingLocked(now time.Time) int {
	if g.dispatchedAt.IsZero() {
		g.remaining = 0
		return 0
	}
	g.remaining = remainingSeconds(now, g.dispatchedAt, g.config.Cooldown.CooldownPeriod)
	return g.remaining
}

func (g *Governor) stateLocked() State {
	st := State{
		RemainingSeconds: g.remaining,
		ResetAt:          g.resetAt,
		Dismissed:        g.dismissed,
		StoreDegraded:    g.store.Degraded(),
	}
	switch {
	case g.inFlight:
		st.Phase = PhaseDispatching
	case !g.resetAt.IsZero():
		st.Phase = PhaseExhausted
	case g.remaining > 0:
		st.Phase = PhaseCoolingDown
	default:
		st.Phase = PhaseReady
	}
	return st
}

func (g *Governor) expireExhaustionLocked(now time.Time) {
	if !g.resetAt.IsZero() && !now.Before(g.resetAt) {
		g.resetAt = time.Time{}
	}
}

// adoptServerRemainingLocked folds an authoritative remaining-time into
// local state by backdating the dispatch timestamp, so a reload
// reconciles to the server's value instead of a fresh full period.
func (g *Governor) adoptServerRemainingLocked(ctx context.Context, rem int) {
	if rem < 1 {
		rem = 1
	}
	now := g.clock.Now()
	g.dispatchedAt = backdatedDispatch(now, g.config.Cooldown.CooldownPeriod, rem)
	g.remaining = rem
	g.persistLocked(ctx, record.SourceServer)
	g.metricInc(MetricCooldownStarted)
	g.startTickerLocked()
}

// persistLocked writes the current dispatch timestamp. Returns whether
// the write was durable; a session-only write keeps this process
// correct and simply will not survive a reload.
func (g *Governor) persistLocked(ctx context.Context, source record.Source) bool {
	encoded := record.Encode(record.Record{
		DispatchedAt: g.dispatchedAt,
		Source:       source,
	})
	return g.store.set(ctx, g.config.Cooldown.StorageKey, encoded)
}

// clearCooldownLocked drops both the in-memory countdown and the
// persisted record, and stops the ticker.
func (g *Governor) clearCooldownLocked(ctx context.Context) {
	g.dispatchedAt = time.Time{}
	g.remaining = 0
	g.store.remove(ctx, g.config.Cooldown.StorageKey)
	g.stopTickerLocked()
}

func (g *Governor) metricInc(id MetricID) {
	if g == nil || g.metrics == nil {
		return
	}
	g.metrics.Inc(id)
}

func (g *Governor) storeFailure(op string, err error) {
	g.metricInc(MetricStoreFailure)
	g.emitAudit(context.Background(), auditEventStoreDegraded, false, "", err, func() map[string]string {
		return map[string]string{
			"op": op,
		}
	})
}

func (g *Governor) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	attemptID string,
	err error,
	metadata func() map[string]string,
) {
	if g == nil || g.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: g.clock.Now(),
		EventType: eventType,
		SubjectID: subjectIDFromContext(ctx),
		AttemptID: attemptID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
	}
	if err != nil {
		event.Error = err.Error()
	}
	if metadata != nil {
		event.Metadata = metadata()
	}

	g.audit.Emit(ctx, event)
}
