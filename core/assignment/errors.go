package assignment

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a version id is unknown.
	ErrNotFound = errors.New("version not found")
	// ErrInvalidRows is returned when a row set fails structural checks.
	ErrInvalidRows = errors.New("invalid assignment rows")
	// ErrEmptyVersion is returned when a version would hold no rows.
	ErrEmptyVersion = errors.New("version has no rows")
)

// NotFoundError names the version id that could not be found.
type NotFoundError struct {
	VersionID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("version %q not found", e.VersionID)
}

// Is makes errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// RowError reports the first structurally invalid row of a set.
type RowError struct {
	Index  int
	Vessel string
	Err    error
}

func (e *RowError) Error() string {
	if e.Vessel != "" {
		return fmt.Sprintf("row %d (%s): %v", e.Index, e.Vessel, e.Err)
	}
	return fmt.Sprintf("row %d: %v", e.Index, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrInvalidRows) match.
func (e *RowError) Is(target error) bool { return target == ErrInvalidRows }

// PersistenceError wraps a failure of the underlying storage. It is fatal to
// the operation that triggered it and never retried by the store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsPersistence reports whether err is a storage failure.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
