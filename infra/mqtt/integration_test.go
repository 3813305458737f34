package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/berthplan/core/events"
	"github.com/kilianp07/berthplan/internal/eventbus"
)

// TestIntegration publishes through a real Mosquitto broker.
func TestIntegration(t *testing.T) {
	if os.Getenv("DOCKER_AVAILABLE") != "true" && os.Getenv("DOCKER_AVAILABLE") != "1" {
		t.Skip("docker not available")
	}
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			// 1.6 accepts anonymous clients without a config file.
			Image:        "eclipse-mosquitto:1.6",
			ExposedPorts: []string{"1883/tcp"},
			WaitingFor:   wait.ForListeningPort("1883/tcp"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start container: %v", err)
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %v", err)
		}
	}()

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "1883")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	broker := fmt.Sprintf("tcp://%s:%s", host, port.Port())

	sub := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("it-sub"))
	if tok := sub.Connect(); tok.WaitTimeout(5*time.Second) && tok.Error() != nil {
		t.Fatalf("subscriber connect: %v", tok.Error())
	}
	defer sub.Disconnect(100)
	got := make(chan VersionMessage, 1)
	tok := sub.Subscribe("it/versions/latest", 1, func(_ paho.Client, m paho.Message) {
		var v VersionMessage
		if json.Unmarshal(m.Payload(), &v) == nil {
			got <- v
		}
	})
	if tok.WaitTimeout(5*time.Second) && tok.Error() != nil {
		t.Fatalf("subscribe: %v", tok.Error())
	}

	n, err := NewPahoNotifier(Config{Broker: broker, TopicPrefix: "it", QoS: 1}, nil)
	if err != nil {
		t.Fatalf("notifier: %v", err)
	}
	defer n.Close()

	bus := eventbus.New()
	defer bus.Close()
	fctx, cancel := context.WithCancel(ctx)
	defer cancel()
	StartForwarder(fctx, bus, n, nil)
	bus.Publish(events.VersionCreated{VersionID: "abc", Source: "crawler", Rows: 7, Time: time.Now()})

	select {
	case v := <-got:
		if v.ID != "abc" || v.Rows != 7 {
			t.Fatalf("unexpected message: %+v", v)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for version message")
	}
}
