package goCooldown

import "errors"

var (
	// ErrGovernorNotReady is returned when the governor is missing a
	// required dependency or has not been activated.
	ErrGovernorNotReady = errors.New("governor not initialized")
	// ErrGovernorClosed is returned once Close has been called; results
	// arriving after teardown are discarded with this error.
	ErrGovernorClosed = errors.New("governor closed")
	// ErrCooldownActive is returned by Trigger while the short cooldown
	// is still counting down.
	ErrCooldownActive = errors.New("cooldown active")
	// ErrDispatchInFlight is returned by Trigger while a previous
	// dispatch has not been reconciled yet.
	ErrDispatchInFlight = errors.New("dispatch in flight")
	// ErrDispatchRateLimited is returned when the server rejected the
	// dispatch inside the short cooldown window; the server's remaining
	// time has already been folded into the countdown.
	ErrDispatchRateLimited = errors.New("dispatch rate limited")
	// ErrAttemptsExhausted is returned when the server reported the
	// longer attempt window as spent. No countdown restart is implied.
	ErrAttemptsExhausted = errors.New("dispatch attempts exhausted")
	// ErrDispatchFailed is returned for transport errors, malformed
	// payloads, and generic server failures; the optimistic cooldown has
	// been rolled back so the caller may retry without penalty.
	ErrDispatchFailed = errors.New("dispatch failed")
)
