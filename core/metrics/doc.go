// Package metrics defines the sinks that record planning activity: versions
// created, validation results, schedule ingestion and edit session actions.
// Sinks like PromSink and InfluxSink live in infra/metrics and can be
// combined with NewMultiSink. NewMetricsSink returns a MultiSink automatically
// when several sinks are configured.
package metrics
