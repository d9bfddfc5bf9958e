// Package otel provides OpenTelemetry metric exporter bindings for
// goCooldown counters and histograms.
//
// [NewOTelExporter] registers Int64ObservableCounter instruments for each
// governor metric and Int64ObservableGauge per histogram bucket. A single
// callback reads [goCooldown.Governor.MetricsSnapshot] on each collection
// cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider — callers supply the Meter.
//   - Mutate governor state.
package otel
