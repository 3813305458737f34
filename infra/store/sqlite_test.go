package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/kilianp07/berthplan/core/assignment"
	"github.com/kilianp07/berthplan/core/assignment/storetest"
	"github.com/kilianp07/berthplan/core/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "plan.db"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) assignment.Store { return newTestStore(t) })
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()
	rows := storetest.SampleRows()
	id, err := s.CreateVersion(ctx, rows, model.SourceCrawler, "first")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = s.Close() }()
	got, err := s.LoadAssignments(ctx, id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !model.RowsEqual(rows, got) {
		t.Fatalf("rows differ after reopen: %#v", got)
	}
}

func TestSQLiteStoreRejectsRowsAtomically(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rows := storetest.SampleRows()
	rows[0].Vessel = ""
	if _, err := s.CreateVersion(ctx, rows, model.SourceUserEdit, ""); !errors.Is(err, assignment.ErrInvalidRows) {
		t.Fatalf("expected invalid rows, got %v", err)
	}
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM assignment_rows`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no rows persisted, got %d", n)
	}
}

func TestSQLiteStoreClosedReturnsPersistenceError(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "plan.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = s.Close()
	_, err = s.ListVersions(context.Background())
	if !assignment.IsPersistence(err) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}
