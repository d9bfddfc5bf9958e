package goCooldown

import "time"

// remainingSeconds derives the user-visible countdown from the recorded
// dispatch time. It is a pure function of its inputs: calling it twice at
// the same instant yields the same result, and it never trusts previously
// accumulated ticks, so a tab that slept through ticks self-heals on the
// next call.
func remainingSeconds(now, dispatchedAt time.Time, period time.Duration) int {
	left := period - now.Sub(dispatchedAt)
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}

// backdatedDispatch converts an authoritative server remaining-time into
// an as-if-locally-dispatched-at timestamp. Persisting the backdated
// value means a reload reconciles to the server's remaining value rather
// than resetting to a full period, which lets one reconciliation path
// serve both local and server cooldowns.
func backdatedDispatch(now time.Time, period time.Duration, remaining int) time.Time {
	return now.Add(-(period - time.Duration(remaining)*time.Second))
}

// periodSeconds is the full countdown for a fresh local dispatch.
func periodSeconds(period time.Duration) int {
	return int((period + time.Second - 1) / time.Second)
}
