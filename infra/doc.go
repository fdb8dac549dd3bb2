// Package infra holds the adapters around the solve core: input tables,
// solve data files, external solvers, metrics sinks, MQTT progress and
// Sentry. These packages depend on the interfaces defined in core.
package infra
