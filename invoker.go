package goCooldown

import (
	"context"
	"fmt"

	"github.com/MrEthical07/goCooldown/internal/record"
	"github.com/google/uuid"
)

// Trigger dispatches the governed action.
//
// The cooldown engages optimistically: the dispatch timestamp is
// persisted and the countdown started before the server answers.
// Success confirms the optimism and changes nothing. A rate-limit signal
// with a remaining time overwrites the countdown with the server's value
// and backdates the persisted timestamp to match, so a reload reconciles
// to the same remaining value. A signal with a reset time marks the long
// attempt window exhausted without touching the countdown. Any other
// failure rolls the optimistic write back so the caller is not penalized
// for an action that never took effect.
//
// The returned TriggerResult carries the reconciled state even when an
// error is returned; recoverable outcomes are reported through the
// sentinel errors ErrDispatchRateLimited, ErrAttemptsExhausted, and
// ErrDispatchFailed.
func (g *Governor) Trigger(ctx context.Context) (TriggerResult, error) {
	if g == nil || g.dispatcher == nil {
		return TriggerResult{}, ErrGovernorNotReady
	}

	attemptID := uuid.NewString()

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return TriggerResult{AttemptID: attemptID}, ErrGovernorClosed
	}
	if !g.activated {
		g.mu.Unlock()
		return TriggerResult{AttemptID: attemptID}, ErrGovernorNotReady
	}
	if g.inFlight {
		st := g.stateLocked()
		g.mu.Unlock()
		return TriggerResult{AttemptID: attemptID, State: st}, ErrDispatchInFlight
	}

	now := g.clock.Now()
	g.expireExhaustionLocked(now)
	if !g.resetAt.IsZero() {
		st := g.stateLocked()
		g.mu.Unlock()
		return TriggerResult{AttemptID: attemptID, State: st}, ErrAttemptsExhausted
	}
	if g.remainingLocked(now) > 0 {
		st := g.stateLocked()
		g.mu.Unlock()
		return TriggerResult{AttemptID: attemptID, State: st}, ErrCooldownActive
	}

	// Optimistic engage: record the dispatch before the server answers.
	g.dispatchedAt = now
	g.remaining = periodSeconds(g.config.Cooldown.CooldownPeriod)
	durable := g.persistLocked(ctx, record.SourceLocal)
	g.startTickerLocked()
	g.inFlight = true
	epoch := g.epoch
	g.mu.Unlock()

	g.metricInc(MetricCooldownStarted)

	start := g.clock.Now()
	result, dispatchErr := g.dispatcher.Dispatch(ctx)
	if g.metrics.LatencyEnabled() {
		g.metrics.Observe(MetricDispatchLatency, g.clock.Now().Sub(start))
	}

	g.mu.Lock()
	if g.closed || g.epoch != epoch {
		// The owning scope ended while the call was in flight; the
		// result must not mutate a dead governor.
		g.mu.Unlock()
		return TriggerResult{AttemptID: attemptID}, ErrGovernorClosed
	}
	g.inFlight = false

	switch {
	case dispatchErr != nil:
		g.rollbackLocked(ctx)
		st := g.stateLocked()
		g.mu.Unlock()

		g.metricInc(MetricDispatchRollback)
		wrapped := fmt.Errorf("%w: %v", ErrDispatchFailed, dispatchErr)
		g.emitAudit(ctx, auditEventDispatch, false, attemptID, wrapped, nil)
		return TriggerResult{AttemptID: attemptID, State: st}, wrapped

	case result.RateLimit != nil && result.RateLimit.Exhausted():
		// The long window is spent. The optimistic countdown stays as
		// it is; only the exhausted flag is raised.
		g.resetAt = result.RateLimit.ResetAt
		st := g.stateLocked()
		g.mu.Unlock()

		g.metricInc(MetricAttemptsExhausted)
		g.emitAudit(ctx, auditEventDispatch, false, attemptID, ErrAttemptsExhausted, func() map[string]string {
			return map[string]string{
				"reset_at": result.RateLimit.ResetAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			}
		})
		return TriggerResult{AttemptID: attemptID, State: st}, ErrAttemptsExhausted

	case result.RateLimit != nil:
		g.adoptServerRemainingLocked(ctx, result.RateLimit.RemainingSeconds)
		st := g.stateLocked()
		g.mu.Unlock()

		g.metricInc(MetricDispatchRateLimited)
		g.emitAudit(ctx, auditEventDispatch, false, attemptID, ErrDispatchRateLimited, func() map[string]string {
			return map[string]string{
				"remaining_seconds": fmt.Sprintf("%d", result.RateLimit.RemainingSeconds),
			}
		})
		return TriggerResult{AttemptID: attemptID, State: st}, ErrDispatchRateLimited

	case !result.OK:
		g.rollbackLocked(ctx)
		st := g.stateLocked()
		g.mu.Unlock()

		g.metricInc(MetricDispatchRollback)
		wrapped := fmt.Errorf("%w: %s", ErrDispatchFailed, result.Reason)
		g.emitAudit(ctx, auditEventDispatch, false, attemptID, wrapped, nil)
		return TriggerResult{AttemptID: attemptID, State: st}, wrapped

	default:
		// Success: the optimistic cooldown was justified.
		st := g.stateLocked()
		g.mu.Unlock()

		g.metricInc(MetricDispatchSuccess)
		g.emitAudit(ctx, auditEventDispatch, true, attemptID, nil, func() map[string]string {
			return map[string]string{
				"durable": fmt.Sprintf("%t", durable),
			}
		})
		return TriggerResult{AttemptID: attemptID, State: st}, nil
	}
}

// rollbackLocked undoes the optimistic engage: the persisted record and
// the in-memory countdown are cleared so the store ends up exactly as it
// was before the trigger.
func (g *Governor) rollbackLocked(ctx context.Context) {
	g.clearCooldownLocked(ctx)
}
