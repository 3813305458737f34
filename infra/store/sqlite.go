package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/kilianp07/berthplan/core/assignment"
	"github.com/kilianp07/berthplan/core/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS versions (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    source TEXT NOT NULL,
    label TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS assignment_rows (
    version_id TEXT NOT NULL REFERENCES versions(id),
    position INTEGER NOT NULL,
    vessel TEXT NOT NULL,
    berth TEXT NOT NULL,
    eta INTEGER NOT NULL,
    etd INTEGER NOT NULL,
    loa_m REAL NOT NULL,
    start_meter REAL NOT NULL,
    PRIMARY KEY (version_id, position)
);
CREATE TABLE IF NOT EXISTS terminals (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    quay_length_m REAL NOT NULL,
    grid_m REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS berths (
    id TEXT PRIMARY KEY,
    terminal_id TEXT NOT NULL,
    label TEXT NOT NULL,
    start_m REAL NOT NULL,
    length_m REAL NOT NULL,
    max_loa_m REAL NOT NULL
);`

// SQLiteStore persists assignment versions and reference data in SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, &assignment.PersistenceError{Op: "open", Err: err}
	}
	// A single connection serialises writers so versions never interleave.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, &assignment.PersistenceError{Op: "schema", Err: err}
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func dsn(path string) string {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return path
	}
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// CreateVersion writes the version header and all rows in one transaction.
func (s *SQLiteStore) CreateVersion(ctx context.Context, rows []model.AssignmentRow, source, label string) (string, error) {
	if err := assignment.CheckRows(rows); err != nil {
		return "", err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", &assignment.PersistenceError{Op: "begin", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	var last int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(created_at), 0) FROM versions`).Scan(&last); err != nil {
		return "", &assignment.PersistenceError{Op: "create version", Err: err}
	}
	created := s.now().UTC().UnixNano()
	if created <= last {
		created = last + int64(time.Microsecond)
	}
	id := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO versions (id, source, label, created_at) VALUES (?, ?, ?, ?)`,
		id, source, label, created); err != nil {
		return "", &assignment.PersistenceError{Op: "create version", Err: err}
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO assignment_rows
        (version_id, position, vessel, berth, eta, etd, loa_m, start_meter)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", &assignment.PersistenceError{Op: "create version", Err: err}
	}
	defer func() { _ = stmt.Close() }()
	for i, r := range rows {
		if _, err := stmt.ExecContext(ctx, id, i, r.Vessel, r.Berth,
			r.ETA.UnixNano(), r.ETD.UnixNano(), r.LOAM, r.StartMeter); err != nil {
			return "", &assignment.PersistenceError{Op: "create version", Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return "", &assignment.PersistenceError{Op: "commit", Err: err}
	}
	return id, nil
}

// ListVersions returns summaries ordered most recent first.
func (s *SQLiteStore) ListVersions(ctx context.Context) ([]model.VersionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT v.id, v.source, v.label, v.created_at,
        (SELECT COUNT(*) FROM assignment_rows r WHERE r.version_id = v.id)
        FROM versions v ORDER BY v.seq DESC`)
	if err != nil {
		return nil, &assignment.PersistenceError{Op: "list versions", Err: err}
	}
	defer func() { _ = rows.Close() }()
	var res []model.VersionSummary
	for rows.Next() {
		var v model.VersionSummary
		var ts int64
		if err := rows.Scan(&v.ID, &v.Source, &v.Label, &ts, &v.RowCount); err != nil {
			return nil, &assignment.PersistenceError{Op: "list versions", Err: err}
		}
		v.CreatedAt = time.Unix(0, ts).UTC()
		res = append(res, v)
	}
	if err := rows.Err(); err != nil {
		return nil, &assignment.PersistenceError{Op: "list versions", Err: err}
	}
	return res, nil
}

// LoadAssignments returns the rows of a version in their saved order.
func (s *SQLiteStore) LoadAssignments(ctx context.Context, versionID string) ([]model.AssignmentRow, error) {
	v, err := s.GetVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}
	return v.Rows, nil
}

// GetVersion returns a version with its rows.
func (s *SQLiteStore) GetVersion(ctx context.Context, versionID string) (model.Version, error) {
	v := model.Version{ID: versionID}
	var ts int64
	err := s.db.QueryRowContext(ctx,
		`SELECT source, label, created_at FROM versions WHERE id = ?`, versionID).
		Scan(&v.Source, &v.Label, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Version{}, &assignment.NotFoundError{VersionID: versionID}
	}
	if err != nil {
		return model.Version{}, &assignment.PersistenceError{Op: "load version", Err: err}
	}
	v.CreatedAt = time.Unix(0, ts).UTC()

	rows, err := s.db.QueryContext(ctx, `SELECT vessel, berth, eta, etd, loa_m, start_meter
        FROM assignment_rows WHERE version_id = ? ORDER BY position`, versionID)
	if err != nil {
		return model.Version{}, &assignment.PersistenceError{Op: "load assignments", Err: err}
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var r model.AssignmentRow
		var eta, etd int64
		if err := rows.Scan(&r.Vessel, &r.Berth, &eta, &etd, &r.LOAM, &r.StartMeter); err != nil {
			return model.Version{}, &assignment.PersistenceError{Op: "load assignments", Err: err}
		}
		r.ETA = time.Unix(0, eta).UTC()
		r.ETD = time.Unix(0, etd).UTC()
		v.Rows = append(v.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return model.Version{}, &assignment.PersistenceError{Op: "load assignments", Err: err}
	}
	return v, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
