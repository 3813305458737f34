// Package session exposes edit sessions over HTTP. Each session is owned by
// the client that created it and addressed by an opaque id.
package session

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/berthplan/api/respond"
	"github.com/kilianp07/berthplan/core/logger"
	"github.com/kilianp07/berthplan/core/model"
	coresession "github.com/kilianp07/berthplan/core/session"
	"github.com/kilianp07/berthplan/core/validate"
)

// ReferenceSource supplies berth limits for violation checks.
type ReferenceSource interface {
	ReferenceData(ctx context.Context) (model.ReferenceData, error)
}

// Config holds what every new session is built with.
type Config struct {
	Session coresession.Config
	// Reference enables berth limit checks when non-nil.
	Reference ReferenceSource
	Publisher coresession.Publisher
	// IdleTTL evicts sessions untouched for that long. Zero keeps them.
	IdleTTL time.Duration
	Log     logger.Logger
}

type entry struct {
	mu      sync.Mutex
	s       *coresession.Session
	touched time.Time
}

// Manager owns the live sessions and serves the session API.
type Manager struct {
	store coresession.Store
	cfg   Config
	log   logger.Logger
	now   func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewManager returns a manager creating sessions against store.
func NewManager(store coresession.Store, cfg Config) *Manager {
	return &Manager{
		store:    store,
		cfg:      cfg,
		log:      logger.OrNop(cfg.Log),
		now:      time.Now,
		sessions: map[string]*entry{},
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Handler serves:
//
//	POST   /api/sessions
//	GET    /api/sessions/{id}
//	DELETE /api/sessions/{id}
//	POST   /api/sessions/{id}/load     {"version_id": "..."}
//	POST   /api/sessions/{id}/edits    {"row": 0, "new_eta": "...", ...}
//	POST   /api/sessions/{id}/undo
//	POST   /api/sessions/{id}/save     {"label": "..."}
//	POST   /api/sessions/{id}/discard
//	POST   /api/sessions/{id}/reset
//	GET    /api/sessions/{id}/violations
func (m *Manager) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/sessions", m.create)
	mux.HandleFunc("GET /api/sessions/{id}", m.with(m.state))
	mux.HandleFunc("DELETE /api/sessions/{id}", m.remove)
	mux.HandleFunc("POST /api/sessions/{id}/load", m.with(m.load))
	mux.HandleFunc("POST /api/sessions/{id}/edits", m.with(m.edit))
	mux.HandleFunc("POST /api/sessions/{id}/undo", m.with(m.undo))
	mux.HandleFunc("POST /api/sessions/{id}/save", m.with(m.save))
	mux.HandleFunc("POST /api/sessions/{id}/discard", m.with(m.discard))
	mux.HandleFunc("POST /api/sessions/{id}/reset", m.with(m.reset))
	mux.HandleFunc("GET /api/sessions/{id}/violations", m.with(m.violations))
	return mux
}

// StateBody describes a session.
type StateBody struct {
	ID        string                `json:"id"`
	State     coresession.State     `json:"state"`
	VersionID string                `json:"version_id,omitempty"`
	Interval  string                `json:"interval"`
	UndoDepth int                   `json:"undo_depth"`
	Rows      []model.AssignmentRow `json:"rows"`
}

func (m *Manager) create(w http.ResponseWriter, r *http.Request) {
	var opts []coresession.Option
	if m.cfg.Reference != nil {
		ref, err := m.cfg.Reference.ReferenceData(r.Context())
		if err != nil {
			respond.Error(w, m.log, err)
			return
		}
		if len(ref.Berths) > 0 {
			opts = append(opts, coresession.WithReference(ref))
		}
	}
	if m.cfg.Publisher != nil {
		opts = append(opts, coresession.WithPublisher(m.cfg.Publisher))
	}
	opts = append(opts, coresession.WithLogger(m.log))
	s, err := coresession.New(m.store, m.cfg.Session, opts...)
	if err != nil {
		respond.Error(w, m.log, err)
		return
	}
	id := uuid.NewString()
	e := &entry{s: s, touched: m.now()}
	m.mu.Lock()
	m.evictLocked()
	m.sessions[id] = e
	m.mu.Unlock()
	m.log.Debugf("session %s created", id)
	respond.JSON(w, http.StatusCreated, body(id, s))
}

func (m *Manager) remove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		respond.Error(w, m.log, errUnknownSession(id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type action func(w http.ResponseWriter, r *http.Request, id string, s *coresession.Session)

// with resolves the session and serialises access to it.
func (m *Manager) with(fn action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		m.mu.Lock()
		e, ok := m.sessions[id]
		m.mu.Unlock()
		if !ok {
			respond.Error(w, m.log, errUnknownSession(id))
			return
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		e.touched = m.now()
		fn(w, r, id, e.s)
	}
}

func (m *Manager) state(w http.ResponseWriter, _ *http.Request, id string, s *coresession.Session) {
	respond.JSON(w, http.StatusOK, body(id, s))
}

func (m *Manager) load(w http.ResponseWriter, r *http.Request, id string, s *coresession.Session) {
	var req struct {
		VersionID string `json:"version_id"`
	}
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, m.log, err)
		return
	}
	if req.VersionID == "" {
		respond.Error(w, m.log, fmt.Errorf("%w: version_id is required", respond.ErrBadRequest))
		return
	}
	if err := s.Load(r.Context(), req.VersionID); err != nil {
		respond.Error(w, m.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, body(id, s))
}

func (m *Manager) edit(w http.ResponseWriter, r *http.Request, id string, s *coresession.Session) {
	var d model.EditDelta
	if err := respond.Decode(r, &d); err != nil {
		respond.Error(w, m.log, err)
		return
	}
	if err := s.ApplyEdit(d); err != nil {
		respond.Error(w, m.log, fmt.Errorf("%w: %w", respond.ErrBadRequest, err))
		return
	}
	respond.JSON(w, http.StatusOK, body(id, s))
}

func (m *Manager) undo(w http.ResponseWriter, _ *http.Request, id string, s *coresession.Session) {
	if !s.Undo() {
		respond.Error(w, m.log, fmt.Errorf("%w: nothing to undo", respond.ErrBadRequest))
		return
	}
	respond.JSON(w, http.StatusOK, body(id, s))
}

func (m *Manager) save(w http.ResponseWriter, r *http.Request, id string, s *coresession.Session) {
	var req struct {
		Label string `json:"label"`
	}
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, m.log, err)
		return
	}
	if s.State() == coresession.StateEmpty {
		respond.Error(w, m.log, fmt.Errorf("%w: %w", respond.ErrBadRequest, coresession.ErrNoWorkingCopy))
		return
	}
	if _, err := s.Save(r.Context(), req.Label); err != nil {
		respond.Error(w, m.log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, body(id, s))
}

func (m *Manager) discard(w http.ResponseWriter, _ *http.Request, id string, s *coresession.Session) {
	s.Discard()
	respond.JSON(w, http.StatusOK, body(id, s))
}

func (m *Manager) reset(w http.ResponseWriter, _ *http.Request, id string, s *coresession.Session) {
	s.Reset()
	respond.JSON(w, http.StatusOK, body(id, s))
}

type violationsBody struct {
	Count    int             `json:"count"`
	Report   validate.Report `json:"report"`
	Messages []string        `json:"messages"`
}

func (m *Manager) violations(w http.ResponseWriter, _ *http.Request, _ string, s *coresession.Session) {
	rep := s.Violations()
	respond.JSON(w, http.StatusOK, violationsBody{Count: rep.Len(), Report: rep, Messages: rep.Messages()})
}

func (m *Manager) evictLocked() {
	if m.cfg.IdleTTL <= 0 {
		return
	}
	cutoff := m.now().Add(-m.cfg.IdleTTL)
	for id, e := range m.sessions {
		if e.mu.TryLock() {
			idle := e.touched.Before(cutoff)
			e.mu.Unlock()
			if idle {
				delete(m.sessions, id)
				m.log.Infof("session %s evicted after %s idle", id, m.cfg.IdleTTL)
			}
		}
	}
}

func body(id string, s *coresession.Session) StateBody {
	rows := s.Rows()
	if rows == nil {
		rows = []model.AssignmentRow{}
	}
	return StateBody{
		ID:        id,
		State:     s.State(),
		VersionID: s.VersionID(),
		Interval:  s.Interval().String(),
		UndoDepth: s.UndoDepth(),
		Rows:      rows,
	}
}

func errUnknownSession(id string) error {
	return &unknownSessionError{id: id}
}

type unknownSessionError struct{ id string }

func (e *unknownSessionError) Error() string { return fmt.Sprintf("session %q not found", e.id) }

func (e *unknownSessionError) Is(target error) bool { return target == respond.ErrNotFound }
