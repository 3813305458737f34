package events

import "time"

// IngestEvent reports the outcome of one schedule ingestion.
type IngestEvent struct {
	Source    string
	VersionID string // empty when skipped or failed
	Rows      int
	Dropped   int
	Skipped   bool
	Err       error
	Duration  time.Duration
	Time      time.Time
}
