package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/berthplan/core/events"
	coremetrics "github.com/kilianp07/berthplan/core/metrics"
)

const namespace = "berthplan"

// PromSink records planning activity in Prometheus metrics.
type PromSink struct {
	versions   *prometheus.CounterVec
	rows       prometheus.Gauge
	violations *prometheus.GaugeVec
	ingestRuns *prometheus.CounterVec
	dropped    prometheus.Counter
	ingestDur  prometheus.Histogram
	edits      *prometheus.CounterVec
}

// NewPromSink registers the metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered under the same name are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.versions, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "versions_created_total",
		Help: "Assignment versions committed, by source",
	}, []string{"source"})); err != nil {
		return nil, err
	}
	if s.rows, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "latest_version_rows",
		Help: "Number of rows in the most recently committed version",
	})); err != nil {
		return nil, err
	}
	if s.violations, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Name: "violations",
		Help: "Violations found by the latest constraint check, by kind",
	}, []string{"kind"})); err != nil {
		return nil, err
	}
	if s.ingestRuns, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "ingest_runs_total",
		Help: "Schedule ingestions, by result",
	}, []string{"result"})); err != nil {
		return nil, err
	}
	if s.dropped, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "ingest_rows_dropped_total",
		Help: "Schedule records dropped during normalisation",
	})); err != nil {
		return nil, err
	}
	if s.ingestDur, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "ingest_duration_seconds",
		Help:    "Time to fetch, normalise and store a schedule snapshot",
		Buckets: prometheus.DefBuckets,
	})); err != nil {
		return nil, err
	}
	if s.edits, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "edit_actions_total",
		Help: "Edit session transitions, by action",
	}, []string{"action"})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordVersionCreated counts the version and tracks its size.
func (s *PromSink) RecordVersionCreated(ev events.VersionCreated) error {
	s.versions.WithLabelValues(ev.Source).Inc()
	s.rows.Set(float64(ev.Rows))
	return nil
}

// RecordValidation sets the violation gauges to the latest check.
func (s *PromSink) RecordValidation(ev events.ValidationEvent) error {
	s.violations.WithLabelValues("temporal").Set(float64(ev.Temporal))
	s.violations.WithLabelValues("spatial").Set(float64(ev.Spatial))
	s.violations.WithLabelValues("berth-limit").Set(float64(ev.Limits))
	return nil
}

// RecordIngest counts the run by result and the dropped records.
func (s *PromSink) RecordIngest(ev events.IngestEvent) error {
	s.ingestRuns.WithLabelValues(ingestResult(ev)).Inc()
	s.dropped.Add(float64(ev.Dropped))
	if ev.Duration > 0 {
		s.ingestDur.Observe(ev.Duration.Seconds())
	}
	return nil
}

// RecordEdit counts the session transition.
func (s *PromSink) RecordEdit(ev events.EditEvent) error {
	s.edits.WithLabelValues(string(ev.Action)).Inc()
	return nil
}

func ingestResult(ev events.IngestEvent) string {
	switch {
	case ev.Err != nil:
		return "failed"
	case ev.Skipped:
		return "skipped"
	default:
		return "created"
	}
}

var (
	_ coremetrics.ValidationRecorder = (*PromSink)(nil)
	_ coremetrics.IngestRecorder     = (*PromSink)(nil)
	_ coremetrics.EditRecorder       = (*PromSink)(nil)
)
