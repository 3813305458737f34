package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kilianp07/berthplan/core/assignment"
	"github.com/kilianp07/berthplan/core/model"
)

// UpsertReferenceData inserts missing rows and updates changed ones in a
// single transaction. Rows absent from ref are kept.
func (s *SQLiteStore) UpsertReferenceData(ctx context.Context, ref model.ReferenceData) (assignment.UpsertResult, error) {
	var res assignment.UpsertResult
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, &assignment.PersistenceError{Op: "begin", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	for _, t := range ref.Terminals {
		var cur model.Terminal
		err := tx.QueryRowContext(ctx, `SELECT id, name, quay_length_m, grid_m FROM terminals WHERE id = ?`, t.ID).
			Scan(&cur.ID, &cur.Name, &cur.QuayLengthM, &cur.GridM)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if _, err := tx.ExecContext(ctx, `INSERT INTO terminals (id, name, quay_length_m, grid_m) VALUES (?, ?, ?, ?)`,
				t.ID, t.Name, t.QuayLengthM, t.GridM); err != nil {
				return res, &assignment.PersistenceError{Op: "upsert terminal", Err: err}
			}
			res.Inserted++
		case err != nil:
			return res, &assignment.PersistenceError{Op: "upsert terminal", Err: err}
		case cur == t:
			res.Unchanged++
		default:
			if _, err := tx.ExecContext(ctx, `UPDATE terminals SET name = ?, quay_length_m = ?, grid_m = ? WHERE id = ?`,
				t.Name, t.QuayLengthM, t.GridM, t.ID); err != nil {
				return res, &assignment.PersistenceError{Op: "upsert terminal", Err: err}
			}
			res.Updated++
		}
	}
	for _, b := range ref.Berths {
		var cur model.Berth
		err := tx.QueryRowContext(ctx, `SELECT id, terminal_id, label, start_m, length_m, max_loa_m FROM berths WHERE id = ?`, b.ID).
			Scan(&cur.ID, &cur.TerminalID, &cur.Label, &cur.StartM, &cur.LengthM, &cur.MaxLOAM)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if _, err := tx.ExecContext(ctx, `INSERT INTO berths (id, terminal_id, label, start_m, length_m, max_loa_m)
                VALUES (?, ?, ?, ?, ?, ?)`, b.ID, b.TerminalID, b.Label, b.StartM, b.LengthM, b.MaxLOAM); err != nil {
				return res, &assignment.PersistenceError{Op: "upsert berth", Err: err}
			}
			res.Inserted++
		case err != nil:
			return res, &assignment.PersistenceError{Op: "upsert berth", Err: err}
		case cur == b:
			res.Unchanged++
		default:
			if _, err := tx.ExecContext(ctx, `UPDATE berths SET terminal_id = ?, label = ?, start_m = ?, length_m = ?, max_loa_m = ?
                WHERE id = ?`, b.TerminalID, b.Label, b.StartM, b.LengthM, b.MaxLOAM, b.ID); err != nil {
				return res, &assignment.PersistenceError{Op: "upsert berth", Err: err}
			}
			res.Updated++
		}
	}
	if err := tx.Commit(); err != nil {
		return assignment.UpsertResult{}, &assignment.PersistenceError{Op: "commit", Err: err}
	}
	return res, nil
}

// ReferenceData returns terminals and berths ordered by id.
func (s *SQLiteStore) ReferenceData(ctx context.Context) (model.ReferenceData, error) {
	var ref model.ReferenceData
	trows, err := s.db.QueryContext(ctx, `SELECT id, name, quay_length_m, grid_m FROM terminals ORDER BY id`)
	if err != nil {
		return ref, &assignment.PersistenceError{Op: "load terminals", Err: err}
	}
	defer func() { _ = trows.Close() }()
	for trows.Next() {
		var t model.Terminal
		if err := trows.Scan(&t.ID, &t.Name, &t.QuayLengthM, &t.GridM); err != nil {
			return ref, &assignment.PersistenceError{Op: "load terminals", Err: err}
		}
		ref.Terminals = append(ref.Terminals, t)
	}
	if err := trows.Err(); err != nil {
		return ref, &assignment.PersistenceError{Op: "load terminals", Err: err}
	}

	brows, err := s.db.QueryContext(ctx, `SELECT id, terminal_id, label, start_m, length_m, max_loa_m FROM berths ORDER BY id`)
	if err != nil {
		return ref, &assignment.PersistenceError{Op: "load berths", Err: err}
	}
	defer func() { _ = brows.Close() }()
	for brows.Next() {
		var b model.Berth
		if err := brows.Scan(&b.ID, &b.TerminalID, &b.Label, &b.StartM, &b.LengthM, &b.MaxLOAM); err != nil {
			return ref, &assignment.PersistenceError{Op: "load berths", Err: err}
		}
		ref.Berths = append(ref.Berths, b)
	}
	if err := brows.Err(); err != nil {
		return ref, &assignment.PersistenceError{Op: "load berths", Err: err}
	}
	return ref, nil
}
