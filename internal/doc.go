// Package internal contains helpers that are intentionally private to
// goCooldown.
//
// # Sub-packages
//
//   - record — versioned encoding of the persisted last-dispatch record
//
// # What this package must NOT do
//
//   - Export types that appear in the public goCooldown API.
//   - Be imported by any package outside the goCooldown module.
package internal
