package events

import "time"

// VersionCreated is published after a version has been committed.
type VersionCreated struct {
	VersionID string
	Source    string
	Label     string
	Rows      int
	Time      time.Time
}

// ValidationEvent summarises a constraint check over one row set.
// VersionID is empty when the rows are an unsaved working copy.
type ValidationEvent struct {
	VersionID string
	Temporal  int
	Spatial   int
	Limits    int
	Time      time.Time
}

// Total returns the number of violations of any kind.
func (e ValidationEvent) Total() int { return e.Temporal + e.Spatial + e.Limits }
