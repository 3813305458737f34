package metrics

import "github.com/kilianp07/berthplan/core/events"

// MetricsSink records committed versions. Every sink implements it; the
// recorder interfaces below are optional.
type MetricsSink interface {
	RecordVersionCreated(ev events.VersionCreated) error
}

// ValidationRecorder records constraint check results.
type ValidationRecorder interface {
	RecordValidation(ev events.ValidationEvent) error
}

// IngestRecorder records schedule ingestion outcomes.
type IngestRecorder interface {
	RecordIngest(ev events.IngestEvent) error
}

// EditRecorder records edit session transitions.
type EditRecorder interface {
	RecordEdit(ev events.EditEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordVersionCreated(events.VersionCreated) error { return nil }
func (NopSink) RecordValidation(events.ValidationEvent) error    { return nil }
func (NopSink) RecordIngest(events.IngestEvent) error            { return nil }
func (NopSink) RecordEdit(events.EditEvent) error                { return nil }
