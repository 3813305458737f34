// Package events defines the planning events emitted on the event bus.
//
// Available event types:
//   - VersionCreated: a new assignment version was persisted
//   - EditEvent: an edit session changed state
//   - IngestEvent: a schedule snapshot was ingested or skipped
//   - ValidationEvent: a row set was checked against the constraints
package events
