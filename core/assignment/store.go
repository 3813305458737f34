package assignment

import (
	"context"

	"github.com/kilianp07/berthplan/core/model"
)

// Store persists immutable assignment versions and reference data.
type Store interface {
	// CreateVersion atomically persists a full snapshot and returns its id.
	CreateVersion(ctx context.Context, rows []model.AssignmentRow, source, label string) (string, error)
	// ListVersions returns summaries ordered most recent first.
	ListVersions(ctx context.Context) ([]model.VersionSummary, error)
	// LoadAssignments returns the rows of a version exactly as persisted.
	LoadAssignments(ctx context.Context, versionID string) ([]model.AssignmentRow, error)
	// GetVersion returns a version with its rows.
	GetVersion(ctx context.Context, versionID string) (model.Version, error)
	// UpsertReferenceData inserts missing and updates changed reference rows.
	// Rows unknown to ref are left untouched.
	UpsertReferenceData(ctx context.Context, ref model.ReferenceData) (UpsertResult, error)
	// ReferenceData returns the stored lookup tables.
	ReferenceData(ctx context.Context) (model.ReferenceData, error)
	Close() error
}

// Loader is the read side used by edit sessions.
type Loader interface {
	LoadAssignments(ctx context.Context, versionID string) ([]model.AssignmentRow, error)
}

// Creator is the write side used by edit sessions and ingestion.
type Creator interface {
	CreateVersion(ctx context.Context, rows []model.AssignmentRow, source, label string) (string, error)
}

// UpsertResult counts what a reference upsert did.
type UpsertResult struct {
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
}

// CheckRows applies the structural checks shared by every store.
func CheckRows(rows []model.AssignmentRow) error {
	if len(rows) == 0 {
		return ErrEmptyVersion
	}
	for i, r := range rows {
		if err := r.Validate(); err != nil {
			return &RowError{Index: i, Vessel: r.Vessel, Err: err}
		}
	}
	return nil
}

// NormalizeRows returns a copy of rows with timestamps in UTC so every store
// hands back the same instants and locations.
func NormalizeRows(rows []model.AssignmentRow) []model.AssignmentRow {
	out := model.CloneRows(rows)
	for i := range out {
		out[i].ETA = out[i].ETA.UTC()
		out[i].ETD = out[i].ETD.UTC()
	}
	return out
}
