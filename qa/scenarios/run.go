package scenarios

import (
	"context"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/berthplan/core/assignment"
	"github.com/kilianp07/berthplan/core/grid"
	"github.com/kilianp07/berthplan/core/model"
	"github.com/kilianp07/berthplan/core/reference"
	"github.com/kilianp07/berthplan/core/session"
	"github.com/kilianp07/berthplan/infra/logger"
	"github.com/kilianp07/berthplan/infra/metrics"
	"github.com/kilianp07/berthplan/internal/eventbus"
)

func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	ctx := context.Background()

	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}
	bus := eventbus.New()
	cctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := metrics.StartEventCollector(cctx, bus, sink, logger.NopLogger{})

	store := assignment.NewMemoryStore()
	rows := make([]model.AssignmentRow, len(sc.Rows))
	for i, r := range sc.Rows {
		if rows[i], err = r.ToModel(); err != nil {
			t.Fatalf("row %d: %v", i, err)
		}
	}
	id, err := store.CreateVersion(ctx, rows, model.SourceCrawler, sc.Name)
	if err != nil {
		t.Fatalf("create version: %v", err)
	}

	iv, _ := grid.ParseInterval(sc.Interval)
	opts := []session.Option{session.WithPublisher(bus), session.WithLogger(logger.NopLogger{})}
	if sc.Reference {
		ref, err := reference.Defaults()
		if err != nil {
			t.Fatalf("reference: %v", err)
		}
		opts = append(opts, session.WithReference(ref))
	}
	s, err := session.New(store, session.Config{Interval: iv, MinGapM: sc.MinGapM}, opts...)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if err := s.Load(ctx, id); err != nil {
		t.Fatalf("load: %v", err)
	}
	for i, e := range sc.Edits {
		d, err := e.ToModel()
		if err != nil {
			t.Fatalf("edit %d: %v", i, err)
		}
		if err := s.ApplyEdit(d); err != nil {
			t.Fatalf("edit %d: %v", i, err)
		}
	}

	rep := s.Violations()
	if len(rep.Temporal) != sc.Expected.Temporal || len(rep.Spatial) != sc.Expected.Spatial || len(rep.Limits) != sc.Expected.Limits {
		t.Fatalf("expected %d/%d/%d violations, got %d/%d/%d: %v",
			sc.Expected.Temporal, sc.Expected.Spatial, sc.Expected.Limits,
			len(rep.Temporal), len(rep.Spatial), len(rep.Limits), rep.Messages())
	}

	bus.Close()
	<-done
	for kind, want := range map[string]int{
		"temporal": sc.Expected.Temporal, "spatial": sc.Expected.Spatial, "berth-limit": sc.Expected.Limits,
	} {
		got, err := violationGauge(reg, kind)
		if err != nil {
			t.Fatalf("gather: %v", err)
		}
		if got != float64(want) {
			t.Errorf("violations{kind=%q} = %v, want %d", kind, got, want)
		}
	}
}

func violationGauge(g prometheus.Gatherer, kind string) (float64, error) {
	families, err := g.Gather()
	if err != nil {
		return 0, err
	}
	for _, mf := range families {
		if mf.GetName() != "berthplan_violations" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "kind" && l.GetValue() == kind {
					return m.GetGauge().GetValue(), nil
				}
			}
		}
	}
	return 0, fmt.Errorf("no violations gauge for kind %q", kind)
}
