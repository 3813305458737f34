package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/berthplan/core/events"
	"github.com/kilianp07/berthplan/core/logger"
	coremetrics "github.com/kilianp07/berthplan/core/metrics"
	infralogger "github.com/kilianp07/berthplan/infra/logger"
)

const writeTimeout = 5 * time.Second

// InfluxConfig holds the InfluxDB v2 connection settings.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes planning activity to InfluxDB as points.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given endpoint. The URL may include
// the /api/v2/write suffix.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: writeTimeout}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      infralogger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings InfluxDB and returns a NopSink when the
// health check fails, so a missing database never blocks planning.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordVersionCreated writes a version_created point.
func (s *InfluxSink) RecordVersionCreated(ev events.VersionCreated) error {
	p := write.NewPointWithMeasurement("version_created").
		AddTag("source", ev.Source).
		AddField("version_id", ev.VersionID).
		AddField("label", ev.Label).
		AddField("rows", ev.Rows).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordValidation writes a validation_result point.
func (s *InfluxSink) RecordValidation(ev events.ValidationEvent) error {
	p := write.NewPointWithMeasurement("validation_result")
	if ev.VersionID != "" {
		p = p.AddTag("version_id", ev.VersionID)
	}
	p = p.AddField("temporal", ev.Temporal).
		AddField("spatial", ev.Spatial).
		AddField("limits", ev.Limits).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordIngest writes a schedule_ingest point.
func (s *InfluxSink) RecordIngest(ev events.IngestEvent) error {
	p := write.NewPointWithMeasurement("schedule_ingest").
		AddTag("source", ev.Source).
		AddTag("result", ingestResult(ev)).
		AddField("rows", ev.Rows).
		AddField("dropped", ev.Dropped).
		AddField("duration_ms", ev.Duration.Milliseconds())
	if ev.Err != nil {
		p = p.AddField("error", ev.Err.Error())
	}
	return s.write(p.SetTime(ev.Time))
}

// RecordEdit writes a session_edit point.
func (s *InfluxSink) RecordEdit(ev events.EditEvent) error {
	p := write.NewPointWithMeasurement("session_edit").
		AddTag("action", string(ev.Action)).
		AddField("undo_depth", ev.UndoDepth)
	if ev.Vessel != "" {
		p = p.AddField("vessel", ev.Vessel)
	}
	return s.write(p.SetTime(ev.Time))
}
