// Package metric provides Prometheus metrics for prodline simulations.
//
// A Registry wraps a private prometheus.Registry so that parallel runs in
// one process (or in tests) never collide on the default registry. The
// core Metrics cover the simulation surface: units produced and consumed,
// producer/consumer waits, buffer occupancy and utilization, the current
// timestep, and the run status. Components register additional collectors
// through the Registrar interface.
//
// Server exposes the registry over HTTP at /metrics in OpenMetrics
// format, with a plain /health endpoint alongside.
package metric
