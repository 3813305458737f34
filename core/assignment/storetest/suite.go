// Package storetest holds behaviour tests shared by every assignment.Store
// implementation.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/berthplan/core/assignment"
	"github.com/kilianp07/berthplan/core/model"
)

// SampleRows returns the two-vessel plan used across store tests.
func SampleRows() []model.AssignmentRow {
	kst := time.FixedZone("KST", 9*3600)
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, kst)
	return []model.AssignmentRow{
		{Vessel: "V1", Berth: "B1", ETA: base, ETD: base.Add(4 * time.Hour), LOAM: 200, StartMeter: 0},
		{Vessel: "V2", Berth: "B1", ETA: base.Add(3 * time.Hour), ETD: base.Add(6 * time.Hour), LOAM: 150.5, StartMeter: 250},
	}
}

// Run executes the suite against stores built by newStore.
func Run(t *testing.T, newStore func(t *testing.T) assignment.Store) {
	t.Run("RoundTrip", func(t *testing.T) { testRoundTrip(t, newStore(t)) })
	t.Run("Deterministic", func(t *testing.T) { testDeterministic(t, newStore(t)) })
	t.Run("MonotonicListing", func(t *testing.T) { testMonotonic(t, newStore(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, newStore(t)) })
	t.Run("StructuralChecks", func(t *testing.T) { testStructural(t, newStore(t)) })
	t.Run("ViolationsAllowed", func(t *testing.T) { testViolationsAllowed(t, newStore(t)) })
	t.Run("ReferenceUpsert", func(t *testing.T) { testReferenceUpsert(t, newStore(t)) })
}

func testRoundTrip(t *testing.T, s assignment.Store) {
	ctx := context.Background()
	rows := SampleRows()
	id, err := s.CreateVersion(ctx, rows, model.SourceCrawler, "crawl")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.LoadAssignments(ctx, id)
	require.NoError(t, err)
	require.True(t, model.RowsEqual(rows, got), "rows differ: %#v", got)

	v, err := s.GetVersion(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.SourceCrawler, v.Source)
	assert.Equal(t, "crawl", v.Label)
	assert.False(t, v.CreatedAt.IsZero())
	assert.Len(t, v.Rows, 2)
}

func testDeterministic(t *testing.T, s assignment.Store) {
	ctx := context.Background()
	id, err := s.CreateVersion(ctx, SampleRows(), model.SourceUserEdit, "edit")
	require.NoError(t, err)
	first, err := s.LoadAssignments(ctx, id)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := s.LoadAssignments(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	// Mutating a loaded snapshot must not leak into the store.
	first[0].Vessel = "MUTATED"
	again, err := s.LoadAssignments(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "V1", again[0].Vessel)
}

func testMonotonic(t *testing.T, s assignment.Store) {
	ctx := context.Background()
	var ids []string
	for i := 0; i < 5; i++ {
		id, err := s.CreateVersion(ctx, SampleRows(), model.SourceUserEdit, "v")
		require.NoError(t, err)
		ids = append(ids, id)
	}
	list, err := s.ListVersions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 5)
	seen := map[string]bool{}
	for i, v := range list {
		assert.False(t, seen[v.ID], "duplicate id %s", v.ID)
		seen[v.ID] = true
		assert.Equal(t, ids[len(ids)-1-i], v.ID)
		assert.Equal(t, 2, v.RowCount)
		if i > 0 {
			assert.True(t, list[i-1].CreatedAt.After(v.CreatedAt), "listing not strictly decreasing at %d", i)
		}
	}
}

func testNotFound(t *testing.T, s assignment.Store) {
	ctx := context.Background()
	_, err := s.LoadAssignments(ctx, "does-not-exist")
	require.Error(t, err)
	assert.True(t, errors.Is(err, assignment.ErrNotFound))
	assert.Contains(t, err.Error(), "does-not-exist")
	_, err = s.GetVersion(ctx, "does-not-exist")
	assert.True(t, errors.Is(err, assignment.ErrNotFound))
}

func testStructural(t *testing.T, s assignment.Store) {
	ctx := context.Background()
	_, err := s.CreateVersion(ctx, nil, model.SourceCrawler, "")
	assert.True(t, errors.Is(err, assignment.ErrEmptyVersion))

	rows := SampleRows()
	rows[1].ETD = rows[1].ETA
	_, err = s.CreateVersion(ctx, rows, model.SourceCrawler, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, assignment.ErrInvalidRows))
	var re *assignment.RowError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, 1, re.Index)

	list, err := s.ListVersions(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "rejected versions must not be persisted")
}

func testViolationsAllowed(t *testing.T, s assignment.Store) {
	ctx := context.Background()
	rows := SampleRows()
	rows[1].StartMeter = 10 // overlapping in time and space
	_, err := s.CreateVersion(ctx, rows, model.SourceUserEdit, "draft")
	assert.NoError(t, err)
}

func testReferenceUpsert(t *testing.T, s assignment.Store) {
	ctx := context.Background()
	ref := model.ReferenceData{
		Terminals: []model.Terminal{{ID: "SND", Name: "Sinseondae", QuayLengthM: 1500, GridM: 10}},
		Berths: []model.Berth{
			{ID: "SND-1", TerminalID: "SND", Label: "1", StartM: 0, LengthM: 300, MaxLOAM: 300},
			{ID: "SND-2", TerminalID: "SND", Label: "2", StartM: 300, LengthM: 300, MaxLOAM: 300},
		},
	}
	res, err := s.UpsertReferenceData(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, assignment.UpsertResult{Inserted: 3}, res)

	res, err = s.UpsertReferenceData(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, assignment.UpsertResult{Unchanged: 3}, res)

	// A manual addition survives a later upsert that does not mention it.
	manual := model.ReferenceData{Berths: []model.Berth{{ID: "X-1", TerminalID: "SND", Label: "X", LengthM: 50}}}
	_, err = s.UpsertReferenceData(ctx, manual)
	require.NoError(t, err)

	ref.Berths[1].MaxLOAM = 280
	res, err = s.UpsertReferenceData(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, assignment.UpsertResult{Updated: 1, Unchanged: 2}, res)

	got, err := s.ReferenceData(ctx)
	require.NoError(t, err)
	require.Len(t, got.Terminals, 1)
	require.Len(t, got.Berths, 3)
	b, ok := got.Berth("SND-2")
	require.True(t, ok)
	assert.Equal(t, 280.0, b.MaxLOAM)
	_, ok = got.Berth("X-1")
	assert.True(t, ok)
}
