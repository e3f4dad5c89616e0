// Package metrics defines the sinks that record scheduling runs for
// observability. Sinks such as PromSink and InfluxSink (infra/metrics)
// receive one RunSummary per run and, when they implement the optional
// recorder interfaces, per-worker load figures. Several sinks combine with
// NewMultiSink; NewRunSink builds the combination from configuration.
package metrics
