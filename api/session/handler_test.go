package session

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/berthplan/core/assignment"
	"github.com/kilianp07/berthplan/core/grid"
	"github.com/kilianp07/berthplan/core/model"
	coresession "github.com/kilianp07/berthplan/core/session"
)

func at(h, m int) time.Time { return time.Date(2025, 3, 1, h, m, 0, 0, time.UTC) }

type fixture struct {
	store   *assignment.MemoryStore
	mgr     *Manager
	h       http.Handler
	version string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := assignment.NewMemoryStore()
	_, err := store.UpsertReferenceData(context.Background(), model.ReferenceData{
		Terminals: []model.Terminal{{ID: "T", QuayLengthM: 1000, GridM: 10}},
		Berths:    []model.Berth{{ID: "B1", TerminalID: "T", StartM: 0, LengthM: 500, MaxLOAM: 350}},
	})
	require.NoError(t, err)
	id, err := store.CreateVersion(context.Background(), []model.AssignmentRow{
		{Vessel: "A", Berth: "B1", ETA: at(0, 0), ETD: at(10, 0), LOAM: 300, StartMeter: 0},
		{Vessel: "B", Berth: "B1", ETA: at(12, 0), ETD: at(20, 0), LOAM: 200, StartMeter: 350},
	}, model.SourceCrawler, "seed")
	require.NoError(t, err)
	mgr := NewManager(store, Config{
		Session:   coresession.Config{Interval: grid.Interval(30 * time.Minute), MinGapM: 30},
		Reference: store,
	})
	return &fixture{store: store, mgr: mgr, h: mgr.Handler(), version: id}
}

func (f *fixture) call(t *testing.T, method, path string, payload any) (*httptest.ResponseRecorder, StateBody) {
	t.Helper()
	var buf bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	f.h.ServeHTTP(rr, req)
	var out StateBody
	if rr.Code < 300 && rr.Body.Len() > 0 {
		_ = json.Unmarshal(rr.Body.Bytes(), &out)
	}
	return rr, out
}

func (f *fixture) open(t *testing.T) string {
	t.Helper()
	rr, st := f.call(t, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, coresession.StateEmpty, st.State)
	assert.Equal(t, "30m", st.Interval)
	return st.ID
}

func TestSessionEditUndoSave(t *testing.T) {
	f := newFixture(t)
	id := f.open(t)
	base := "/api/sessions/" + id

	rr, st := f.call(t, http.MethodPost, base+"/load", map[string]string{"version_id": f.version})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, coresession.StateLoaded, st.State)
	require.Len(t, st.Rows, 2)

	eta := at(5, 14)
	rr, st = f.call(t, http.MethodPost, base+"/edits", model.EditDelta{Row: 1, ETA: &eta})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, coresession.StateDirty, st.State)
	assert.True(t, st.Rows[1].ETA.Equal(at(5, 0)), "eta must be snapped, got %s", st.Rows[1].ETA)
	assert.Equal(t, 1, st.UndoDepth)

	rr, _ = f.call(t, http.MethodGet, base+"/violations", nil)
	var vb violationsBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &vb))
	assert.Equal(t, 1, len(vb.Report.Temporal))

	_, st = f.call(t, http.MethodPost, base+"/undo", nil)
	assert.Equal(t, coresession.StateLoaded, st.State)
	rr, _ = f.call(t, http.MethodPost, base+"/undo", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	_, _ = f.call(t, http.MethodPost, base+"/edits", model.EditDelta{Row: 1, ETA: &eta})
	rr, st = f.call(t, http.MethodPost, base+"/save", map[string]string{"label": "moved B"})
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, coresession.StateLoaded, st.State)
	assert.NotEqual(t, f.version, st.VersionID)

	v, err := f.store.GetVersion(context.Background(), st.VersionID)
	require.NoError(t, err)
	assert.Equal(t, "moved B", v.Label)
	assert.Equal(t, model.SourceUserEdit, v.Source)
}

func TestSessionRejectsBadEdits(t *testing.T) {
	f := newFixture(t)
	id := f.open(t)
	base := "/api/sessions/" + id

	eta := at(1, 0)
	rr, _ := f.call(t, http.MethodPost, base+"/edits", model.EditDelta{Row: 0, ETA: &eta})
	assert.Equal(t, http.StatusBadRequest, rr.Code, "edit before load")

	f.call(t, http.MethodPost, base+"/load", map[string]string{"version_id": f.version})
	rr, _ = f.call(t, http.MethodPost, base+"/edits", model.EditDelta{Row: 7, ETA: &eta})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	late := at(23, 0)
	rr, _ = f.call(t, http.MethodPost, base+"/edits", model.EditDelta{Row: 0, ETA: &late})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	_, st := f.call(t, http.MethodGet, base, nil)
	assert.Equal(t, 0, st.UndoDepth)
	assert.Equal(t, coresession.StateLoaded, st.State)

	rr, _ = f.call(t, http.MethodPost, base+"/load", map[string]string{"version_id": "missing"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr, _ = f.call(t, http.MethodPost, base+"/load", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSessionDiscardResetDelete(t *testing.T) {
	f := newFixture(t)
	id := f.open(t)
	base := "/api/sessions/" + id
	f.call(t, http.MethodPost, base+"/load", map[string]string{"version_id": f.version})
	berth := "B2"
	f.call(t, http.MethodPost, base+"/edits", model.EditDelta{Row: 0, Berth: &berth})

	_, st := f.call(t, http.MethodPost, base+"/discard", nil)
	assert.Equal(t, coresession.StateLoaded, st.State)
	assert.Equal(t, "B1", st.Rows[0].Berth)

	_, st = f.call(t, http.MethodPost, base+"/reset", nil)
	assert.Equal(t, coresession.StateEmpty, st.State)
	assert.Empty(t, st.Rows)

	rr, _ := f.call(t, http.MethodPost, base+"/save", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, _ = f.call(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr, _ = f.call(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Zero(t, f.mgr.Len())
}

func TestSessionIdleEviction(t *testing.T) {
	f := newFixture(t)
	now := at(0, 0)
	f.mgr.now = func() time.Time { return now }
	f.mgr.cfg.IdleTTL = time.Hour

	first := f.open(t)
	now = now.Add(2 * time.Hour)
	f.open(t)

	assert.Equal(t, 1, f.mgr.Len())
	rr, _ := f.call(t, http.MethodGet, "/api/sessions/"+first, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
