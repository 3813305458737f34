// Package mqtt defines how committed versions are announced to other
// systems over a message broker.
package mqtt

import (
	"errors"

	"github.com/kilianp07/berthplan/core/events"
)

// ErrNotConnected is returned when the broker connection is down.
var ErrNotConnected = errors.New("mqtt: not connected")

// Notifier announces planning activity.
type Notifier interface {
	// NotifyVersion announces a committed version.
	NotifyVersion(ev events.VersionCreated) error
	// NotifyIngest announces the outcome of a schedule ingestion.
	NotifyIngest(ev events.IngestEvent) error
	Close()
}

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) NotifyVersion(events.VersionCreated) error { return nil }
func (NopNotifier) NotifyIngest(events.IngestEvent) error     { return nil }
func (NopNotifier) Close()                                    {}
