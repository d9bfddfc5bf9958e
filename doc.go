// Package goCooldown throttles a rate-limited, side-effecting server
// action — canonically "resend verification email" — and keeps the
// user-visible cooldown consistent across reloads, multiple clients
// sharing one durable store, and authoritative server-side limits the
// client cannot observe directly.
//
// The package is built around one durable fact, the last-dispatch
// timestamp, and one pure derivation, the remaining countdown. Server
// disagreements (429 responses, probe results) are normalized back into
// as-if-dispatched-at form so a single reconciliation path serves both
// local and server cooldowns.
//
// # Architecture boundaries
//
// goCooldown is the public surface. It exposes [Governor], [Builder],
// [Config], the capability interfaces ([ActionDispatcher],
// [StatusProber], [TimestampStore], [Clock]) and value types. The
// persisted record encoding lives under internal/ and is never
// exported.
//
// # What this package must NOT do
//
//   - Implement the server-side limiter; the server stays authoritative
//     and its contract is consumed, not reproduced.
//   - Block the governed action on a broken store or probe; both fail
//     soft and the action proceeds on in-memory state.
//   - Render anything; only the final user-facing state (ready,
//     counting down, exhausted, just failed) is surfaced outward.
//
// # Failure policy
//
// Storage errors degrade to session-only tracking, probe errors fail
// open, rate-limit responses are reconciled into the countdown, and all
// other dispatch failures roll back the optimistic cooldown so the user
// can retry without penalty.
package goCooldown
