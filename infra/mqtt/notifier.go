package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/berthplan/core/events"
	"github.com/kilianp07/berthplan/core/logger"
	coremon "github.com/kilianp07/berthplan/core/monitoring"
	coremqtt "github.com/kilianp07/berthplan/core/mqtt"
	"github.com/kilianp07/berthplan/internal/eventbus"
)

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// VersionMessage is the payload published for each committed version.
type VersionMessage struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Label     string    `json:"label"`
	Rows      int       `json:"rows"`
	CreatedAt time.Time `json:"created_at"`
}

// IngestMessage is the payload published for each ingestion.
type IngestMessage struct {
	Source    string    `json:"source"`
	VersionID string    `json:"version_id,omitempty"`
	Rows      int       `json:"rows"`
	Dropped   int       `json:"dropped"`
	Skipped   bool      `json:"skipped"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

// PahoNotifier publishes planning activity with Eclipse Paho.
//
// Topics, under the configured prefix:
//
//	<prefix>/status            online/offline, retained
//	<prefix>/versions/latest   last committed version
//	<prefix>/ingest            ingestion outcomes
type PahoNotifier struct {
	cli        pahoClient
	prefix     string
	qos        byte
	retain     bool
	maxRetries int
	backoff    time.Duration
	log        logger.Logger
}

// NewPahoNotifier connects to the broker and marks the service online.
func NewPahoNotifier(cfg Config, log logger.Logger) (*PahoNotifier, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log = logger.OrNop(log)
	opts.OnConnect = func(paho.Client) { log.Infof("mqtt connected to %s", cfg.Broker) }
	opts.OnConnectionLost = func(_ paho.Client, err error) { log.Errorf("mqtt connection lost: %v", err) }
	opts.OnReconnecting = func(paho.Client, *paho.ClientOptions) { log.Warnf("reconnecting to mqtt broker") }

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, token.Error())
	}
	n := &PahoNotifier{
		cli:        c,
		prefix:     cfg.TopicPrefix,
		qos:        cfg.QoS,
		retain:     cfg.Retain,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		log:        log,
	}
	if err := n.publish(n.prefix+"/status", []byte("online"), true); err != nil {
		log.Warnf("publish status: %v", err)
	}
	return n, nil
}

// NotifyVersion publishes ev on <prefix>/versions/latest.
func (n *PahoNotifier) NotifyVersion(ev events.VersionCreated) error {
	payload, err := json.Marshal(VersionMessage{
		ID: ev.VersionID, Source: ev.Source, Label: ev.Label, Rows: ev.Rows, CreatedAt: ev.Time.UTC(),
	})
	if err != nil {
		return err
	}
	if err := n.publish(n.prefix+"/versions/latest", payload, n.retain); err != nil {
		coremon.CaptureException(err, map[string]string{"module": "mqtt", "version_id": ev.VersionID})
		return err
	}
	return nil
}

// NotifyIngest publishes ev on <prefix>/ingest.
func (n *PahoNotifier) NotifyIngest(ev events.IngestEvent) error {
	msg := IngestMessage{
		Source: ev.Source, VersionID: ev.VersionID, Rows: ev.Rows, Dropped: ev.Dropped,
		Skipped: ev.Skipped, At: ev.Time.UTC(),
	}
	if ev.Err != nil {
		msg.Error = ev.Err.Error()
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := n.publish(n.prefix+"/ingest", payload, false); err != nil {
		coremon.CaptureException(err, map[string]string{"module": "mqtt", "source": ev.Source})
		return err
	}
	return nil
}

func (n *PahoNotifier) publish(topic string, payload []byte, retain bool) error {
	if !n.cli.IsConnected() {
		return coremqtt.ErrNotConnected
	}
	var err error
	for attempt := 0; attempt <= n.maxRetries; attempt++ {
		token := n.cli.Publish(topic, n.qos, retain, payload)
		token.Wait()
		if err = token.Error(); err == nil {
			n.log.Debugf("published %d bytes to %s", len(payload), topic)
			return nil
		}
		n.log.Errorf("publish attempt %d to %s failed: %v", attempt+1, topic, err)
		if attempt < n.maxRetries {
			time.Sleep(n.backoff * time.Duration(1<<attempt))
		}
	}
	return fmt.Errorf("publish %s: %w", topic, err)
}

// Close marks the service offline and disconnects.
func (n *PahoNotifier) Close() {
	if n.cli == nil || !n.cli.IsConnected() {
		return
	}
	_ = n.publish(n.prefix+"/status", []byte("offline"), true)
	n.cli.Disconnect(250)
}

// StartForwarder publishes version and ingest events from bus through n
// until ctx is canceled or the bus is closed.
func StartForwarder(ctx context.Context, bus eventbus.EventBus, n coremqtt.Notifier, log logger.Logger) {
	if bus == nil || n == nil {
		return
	}
	log = logger.OrNop(log)
	sub := bus.Subscribe()
	coremon.Go("mqtt-forwarder", func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				var err error
				switch e := ev.(type) {
				case events.VersionCreated:
					err = n.NotifyVersion(e)
				case events.IngestEvent:
					err = n.NotifyIngest(e)
				}
				if err != nil {
					log.Warnf("notify %T: %v", ev, err)
				}
			}
		}
	})
}

var _ coremqtt.Notifier = (*PahoNotifier)(nil)
