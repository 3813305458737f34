package metrics

import (
	"errors"

	"github.com/kilianp07/berthplan/core/events"
)

// MultiSink fans records out to several sinks. Every sink is called even
// when an earlier one fails; the errors are joined.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

func (m *MultiSink) RecordVersionCreated(ev events.VersionCreated) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordVersionCreated(ev))
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordValidation(ev events.ValidationEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(ValidationRecorder); ok {
			errs = append(errs, r.RecordValidation(ev))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordIngest(ev events.IngestEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(IngestRecorder); ok {
			errs = append(errs, r.RecordIngest(ev))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordEdit(ev events.EditEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(EditRecorder); ok {
			errs = append(errs, r.RecordEdit(ev))
		}
	}
	return errors.Join(errs...)
}
