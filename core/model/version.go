package model

import "time"

// Provenance tags attached to versions.
const (
	SourceCrawler   = "crawler"
	SourceUserEdit  = "user-edit"
	SourceGantt     = "user-edit:gantt"
	SourceCSVUpload = "csv-upload"
)

// Version is an immutable snapshot of the full assignment set.
type Version struct {
	ID        string          `json:"id"`
	Source    string          `json:"source"`
	Label     string          `json:"label"`
	CreatedAt time.Time       `json:"created_at"`
	Rows      []AssignmentRow `json:"rows"`
}

// Summary strips the rows from the version.
func (v Version) Summary() VersionSummary {
	return VersionSummary{ID: v.ID, Source: v.Source, Label: v.Label, CreatedAt: v.CreatedAt, RowCount: len(v.Rows)}
}

// VersionSummary is the listing form of a version.
type VersionSummary struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
	RowCount  int       `json:"row_count"`
}

// ShortID returns the first eight characters of the id, as shown to operators.
func (s VersionSummary) ShortID() string {
	if len(s.ID) <= 8 {
		return s.ID
	}
	return s.ID[:8]
}
