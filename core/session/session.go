// Package session implements the planner's edit session: a working copy of
// one assignment version with snapped edits, undo and save.
//
// A Session belongs to a single editor and is not safe for concurrent use.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/berthplan/core/assignment"
	"github.com/kilianp07/berthplan/core/events"
	"github.com/kilianp07/berthplan/core/grid"
	"github.com/kilianp07/berthplan/core/logger"
	"github.com/kilianp07/berthplan/core/model"
	"github.com/kilianp07/berthplan/core/validate"
	"github.com/kilianp07/berthplan/internal/eventbus"
)

// State is the lifecycle state of a session.
type State string

const (
	StateEmpty  State = "empty"
	StateLoaded State = "loaded"
	StateDirty  State = "dirty"
)

var (
	// ErrNoWorkingCopy is returned by operations that need a loaded version.
	ErrNoWorkingCopy = errors.New("no version loaded")
	// ErrUnknownRow is returned when a delta targets a row that does not exist.
	ErrUnknownRow = errors.New("unknown row")
	// ErrInvalidEdit is returned when a delta would leave a row without a
	// positive occupation window.
	ErrInvalidEdit = errors.New("invalid edit")
)

// Store is what a session needs from the assignment store.
type Store interface {
	assignment.Loader
	assignment.Creator
}

// Publisher receives session events.
type Publisher interface {
	Publish(e eventbus.Event)
}

// Config holds the grid and gap settings of a session.
type Config struct {
	Interval grid.Interval
	MinGapM  float64
	// Source tags versions created by Save. Defaults to user-edit.
	Source string
}

// Session is an edit session over one version.
type Session struct {
	store Store
	cfg   Config
	ref   *model.ReferenceData
	bus   Publisher
	log   logger.Logger
	now   func() time.Time

	state     State
	versionID string
	base      []model.AssignmentRow
	working   []model.AssignmentRow
	history   [][]model.AssignmentRow
}

// Option customises a Session.
type Option func(*Session)

// WithReference enables berth limit checks in Violations.
func WithReference(ref model.ReferenceData) Option {
	return func(s *Session) { s.ref = &ref }
}

// WithPublisher sets the bus session events are published on.
func WithPublisher(p Publisher) Option {
	return func(s *Session) { s.bus = p }
}

// WithLogger sets the session logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) { s.log = logger.OrNop(l) }
}

// New returns an empty session.
func New(store Store, cfg Config, opts ...Option) (*Session, error) {
	if store == nil {
		return nil, errors.New("session: nil store")
	}
	if !cfg.Interval.Valid() {
		return nil, fmt.Errorf("session: invalid snap interval %s", cfg.Interval)
	}
	if cfg.MinGapM < 0 {
		return nil, fmt.Errorf("session: negative minimum gap %.1f", cfg.MinGapM)
	}
	if cfg.Source == "" {
		cfg.Source = model.SourceUserEdit
	}
	s := &Session{store: store, cfg: cfg, log: logger.NopLogger{}, now: time.Now, state: StateEmpty}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// VersionID returns the version the working copy derives from, or "" when
// the session is empty.
func (s *Session) VersionID() string { return s.versionID }

// Interval returns the snap interval used for edits.
func (s *Session) Interval() grid.Interval { return s.cfg.Interval }

// UndoDepth returns the number of edits that can be undone.
func (s *Session) UndoDepth() int { return len(s.history) }

// Rows returns a copy of the working copy.
func (s *Session) Rows() []model.AssignmentRow { return model.CloneRows(s.working) }

// Load replaces the working copy with the rows of versionID and clears the
// undo history. On failure the session is left unchanged.
func (s *Session) Load(ctx context.Context, versionID string) error {
	rows, err := s.store.LoadAssignments(ctx, versionID)
	if err != nil {
		return fmt.Errorf("load version %s: %w", versionID, err)
	}
	s.versionID = versionID
	s.base = model.CloneRows(rows)
	s.working = rows
	s.history = nil
	s.state = StateLoaded
	s.log.Debugw("session loaded", map[string]any{"version": versionID, "rows": len(rows)})
	s.publish(events.ActionLoad, "")
	return nil
}

// ApplyEdit merges the delta into the target row, snaps both ends of the
// edited row (and its quay position when reference data is set) and records
// the previous working copy for undo. Rejected deltas leave the session and
// its history untouched. A delta that leaves the row as it was is a no-op.
func (s *Session) ApplyEdit(d model.EditDelta) error {
	if s.state == StateEmpty {
		return ErrNoWorkingCopy
	}
	if d.Row < 0 || d.Row >= len(s.working) {
		return fmt.Errorf("%w %d (have %d rows)", ErrUnknownRow, d.Row, len(s.working))
	}
	if d.Empty() {
		return nil
	}
	cur := s.working[d.Row]
	next := cur
	if d.ETA != nil {
		next.ETA = *d.ETA
	}
	if d.ETD != nil {
		next.ETD = *d.ETD
	}
	if d.Berth != nil {
		if *d.Berth == "" {
			return fmt.Errorf("%w: empty berth for %s", ErrInvalidEdit, next.Vessel)
		}
		next.Berth = *d.Berth
	}
	if d.StartMeter != nil {
		if *d.StartMeter < 0 {
			return fmt.Errorf("%w: negative start meter for %s", ErrInvalidEdit, next.Vessel)
		}
		next.StartMeter = *d.StartMeter
	}
	next = s.snap(next)
	if !next.ETA.Before(next.ETD) {
		return fmt.Errorf("%w: %s would depart at %s before arriving at %s", ErrInvalidEdit,
			next.Vessel, next.ETD.Format(time.RFC3339), next.ETA.Format(time.RFC3339))
	}
	if model.RowsEqual([]model.AssignmentRow{cur}, []model.AssignmentRow{next}) {
		return nil
	}
	s.history = append(s.history, model.CloneRows(s.working))
	s.working[d.Row] = next
	s.refreshState()
	s.publish(events.ActionEdit, next.Vessel)
	return nil
}

func (s *Session) snap(r model.AssignmentRow) model.AssignmentRow {
	r = grid.SnapRow(r, s.cfg.Interval)
	if s.ref != nil {
		r = grid.SnapPosition(r, *s.ref)
	}
	return r
}

// Undo restores the working copy from before the most recent edit. It
// reports false when there is nothing to undo.
func (s *Session) Undo() bool {
	n := len(s.history)
	if n == 0 {
		return false
	}
	s.working = s.history[n-1]
	s.history[n-1] = nil
	s.history = s.history[:n-1]
	s.refreshState()
	s.publish(events.ActionUndo, "")
	return true
}

// Save persists the working copy as a new version and continues against it.
// An empty label defaults to one naming the snap interval.
func (s *Session) Save(ctx context.Context, label string) (string, error) {
	if s.state == StateEmpty {
		return "", ErrNoWorkingCopy
	}
	if label == "" {
		label = fmt.Sprintf("edit (%s)", s.cfg.Interval)
	}
	id, err := s.store.CreateVersion(ctx, s.working, s.cfg.Source, label)
	if err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	s.versionID = id
	s.base = model.CloneRows(s.working)
	s.history = nil
	s.state = StateLoaded
	s.log.Infof("session saved version %s (%d rows, %q)", id, len(s.working), label)
	s.publish(events.ActionSave, "")
	if s.bus != nil {
		s.bus.Publish(events.VersionCreated{
			VersionID: id, Source: s.cfg.Source, Label: label, Rows: len(s.working), Time: s.now(),
		})
	}
	return id, nil
}

// Discard drops every unsaved edit and returns to the loaded version.
func (s *Session) Discard() {
	if s.state == StateEmpty {
		return
	}
	s.working = model.CloneRows(s.base)
	s.history = nil
	s.state = StateLoaded
	s.publish(events.ActionDiscard, "")
}

// Reset empties the session.
func (s *Session) Reset() {
	s.versionID = ""
	s.base = nil
	s.working = nil
	s.history = nil
	s.state = StateEmpty
	s.publish(events.ActionReset, "")
}

// Violations checks a snapped copy of the working copy. The working copy
// itself is not modified.
func (s *Session) Violations() validate.Report {
	rows := make([]model.AssignmentRow, len(s.working))
	for i, r := range s.working {
		rows[i] = s.snap(r)
	}
	rep := validate.Check(rows, s.cfg.MinGapM, s.ref)
	if s.bus != nil {
		ev := events.ValidationEvent{
			Temporal: len(rep.Temporal), Spatial: len(rep.Spatial), Limits: len(rep.Limits), Time: s.now(),
		}
		if s.state == StateLoaded {
			ev.VersionID = s.versionID
		}
		s.bus.Publish(ev)
	}
	return rep
}

func (s *Session) refreshState() {
	if model.RowsEqual(s.working, s.base) {
		s.state = StateLoaded
		return
	}
	s.state = StateDirty
}

func (s *Session) publish(action events.EditAction, vessel string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.EditEvent{
		Action: action, VersionID: s.versionID, Vessel: vessel, UndoDepth: len(s.history), Time: s.now(),
	})
}
