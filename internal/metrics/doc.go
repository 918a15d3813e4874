// Package metrics provides Prometheus instrumentation for framepress.
//
// All metrics are prefixed with "framepress_" and registered with the default
// registry through promauto.
//
// # Metric Categories
//
// ## Engine Metrics
//
//   - EngineLoadsTotal: Counter of engine loads by outcome (ready, error, released)
//   - EngineLoadDuration: Histogram of load duration in seconds
//   - EngineState: Gauge set to 1 for the current lifecycle state
//
// ## Job Metrics
//
//   - JobsTotal: Counter of scoped jobs by operation and outcome
//   - JobDuration: Histogram of job duration by operation
//
// ## Ladder Metrics
//
//   - LadderTiersTotal: Counter of encoded tiers by tier name and status
//
// The observer types adapt these metrics to the engine, jobs, and ladder
// observer interfaces. WriteTextfile snapshots the default registry in the
// node-exporter textfile format for short-lived CLI runs.
package metrics
