package goCooldown

import (
	"context"
	"time"
)

// Phase identifies where the governor currently sits in the dispatch
// state machine.
type Phase uint8

const (
	// PhaseReady means no cooldown is active and a trigger is permitted.
	PhaseReady Phase = iota
	// PhaseDispatching means a dispatch is in flight and its outcome has
	// not been reconciled yet.
	PhaseDispatching
	// PhaseCoolingDown means the short per-action cooldown is counting down.
	PhaseCoolingDown
	// PhaseExhausted means the server reported the longer attempt window
	// as spent; no countdown is implied and triggers are refused until
	// the reported reset time passes.
	PhaseExhausted
)

// String returns a stable lowercase name for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseReady:
		return "ready"
	case PhaseDispatching:
		return "dispatching"
	case PhaseCoolingDown:
		return "cooling_down"
	case PhaseExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// RateLimitSignal carries an authoritative server disagreement about the
// client's view of the cooldown. Exactly one of the two arms is set:
// RemainingSeconds re-arms the short cooldown, ResetAt marks the longer
// attempt window as exhausted. The two are never combined.
type RateLimitSignal struct {
	RemainingSeconds int
	ResetAt          time.Time
}

// Exhausted reports whether the signal describes the long attempt window
// rather than the short per-action cooldown.
func (s RateLimitSignal) Exhausted() bool {
	return !s.ResetAt.IsZero()
}

// DispatchResult is the reconcilable outcome of a mutating dispatch.
//
// OK true means the server accepted the action. A non-nil RateLimit means
// the server rejected it with 429 semantics and the signal must be folded
// back into cooldown state. OK false with a nil RateLimit is a generic
// server-side failure (5xx, malformed payload) and rolls back the
// optimistic cooldown. Transport failures are returned as errors by the
// dispatcher instead.
type DispatchResult struct {
	OK        bool
	RateLimit *RateLimitSignal
	Reason    string
}

// ProbeResult is the outcome of a read-only limit probe.
type ProbeResult struct {
	Limited          bool
	RemainingSeconds int
}

// ActionDispatcher performs the rate-limited, side-effecting server
// action. Implementations map HTTP 429 bodies into a RateLimitSignal and
// other non-2xx statuses into a failed DispatchResult; only transport
// errors are returned as errors.
type ActionDispatcher interface {
	Dispatch(ctx context.Context) (DispatchResult, error)
}

// StatusProber is an idempotent, non-mutating status check. It must never
// consume an attempt from the server-side quota. Probe errors are treated
// as advisory and fail open.
type StatusProber interface {
	Probe(ctx context.Context) (ProbeResult, error)
}

// TimestampStore is the durable key/value capability backing the
// persisted cooldown timestamp and, under the persistent dismiss policy,
// the dismissal flag. Implementations may fail; the governor wraps every
// call in a fail-soft layer, so a broken store degrades to in-memory
// tracking instead of blocking the action.
type TimestampStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// State is a point-in-time snapshot of the governor.
type State struct {
	Phase            Phase
	RemainingSeconds int
	ResetAt          time.Time
	Dismissed        bool
	Visible          bool
	StoreDegraded    bool
}

// TriggerResult reports the reconciled state after a trigger, together
// with the attempt ID attached to the dispatch's audit events.
type TriggerResult struct {
	AttemptID string
	State     State
}
