// Package metrics defines how solve outcomes are exported. Sinks are created
// from configuration through a factory registry and fanned out with MultiSink.
//
// Sinks implement Sink and may implement RunRecorder for whole-run summaries.
// The built-in sinks live in infra/metrics.
package metrics
