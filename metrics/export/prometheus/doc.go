// Package prometheus provides Prometheus collectors for goCooldown metrics.
//
// [NewPrometheusExporter] accepts a [goCooldown.Governor] and exposes an
// [http.Handler] that renders all governor counters and histograms in
// Prometheus text exposition format. Counter names are prefixed
// gocooldown_*_total; the single histogram is
// gocooldown_dispatch_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate governor state.
package prometheus
