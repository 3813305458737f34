package metrics

import (
	"context"

	"github.com/kilianp07/berthplan/core/events"
	"github.com/kilianp07/berthplan/core/logger"
	coremetrics "github.com/kilianp07/berthplan/core/metrics"
	"github.com/kilianp07/berthplan/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and forwards planning
// events to sink. It stops when ctx is canceled or the bus is closed. The
// returned channel is closed once the collector has stopped.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	log = logger.OrNop(log)
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := record(sink, ev); err != nil {
					log.Warnf("record %T: %v", ev, err)
				}
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, ev eventbus.Event) error {
	switch e := ev.(type) {
	case events.VersionCreated:
		return sink.RecordVersionCreated(e)
	case events.ValidationEvent:
		if r, ok := sink.(coremetrics.ValidationRecorder); ok {
			return r.RecordValidation(e)
		}
	case events.IngestEvent:
		if r, ok := sink.(coremetrics.IngestRecorder); ok {
			return r.RecordIngest(e)
		}
	case events.EditEvent:
		if r, ok := sink.(coremetrics.EditRecorder); ok {
			return r.RecordEdit(e)
		}
	}
	return nil
}
