package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kilianp07/berthplan/core/events"
	"github.com/kilianp07/berthplan/internal/eventbus"
)

func TestEventCollectorForwardsEvents(t *testing.T) {
	sink, err := NewPromSinkWithRegistry(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("sink: %v", err)
	}
	bus := eventbus.New()
	ctx, cancel := context.WithCancel(context.Background())
	done := StartEventCollector(ctx, bus, sink, nil)

	// Subscription happens synchronously, so events published now are seen.
	bus.Publish(events.VersionCreated{Source: "crawler", Rows: 3})
	bus.Publish(events.EditEvent{Action: events.ActionSave})
	bus.Publish("ignored")

	deadline := time.Now().Add(2 * time.Second)
	for testutil.ToFloat64(sink.edits.WithLabelValues("save")) < 1 {
		if time.Now().After(deadline) {
			t.Fatal("events not collected")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if v := testutil.ToFloat64(sink.versions.WithLabelValues("crawler")); v != 1 {
		t.Fatalf("versions = %v", v)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}
}

func TestEventCollectorStopsOnBusClose(t *testing.T) {
	bus := eventbus.New()
	done := StartEventCollector(context.Background(), bus, nopSink(), nil)
	bus.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop after bus close")
	}
}

func TestEventCollectorNilBus(t *testing.T) {
	done := StartEventCollector(context.Background(), nil, nopSink(), nil)
	select {
	case <-done:
	default:
		t.Fatal("expected closed channel")
	}
}

func nopSink() *PromSink {
	s, _ := NewPromSinkWithRegistry(prometheus.NewRegistry())
	return s
}
