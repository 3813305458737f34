package versions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kilianp07/berthplan/core/assignment"
	"github.com/kilianp07/berthplan/core/model"
	"github.com/kilianp07/berthplan/core/occupancy"
)

func at(h int) time.Time { return time.Date(2025, 3, 1, h, 0, 0, 0, time.UTC) }

func seed(t *testing.T) (*assignment.MemoryStore, string, string) {
	t.Helper()
	store := assignment.NewMemoryStore()
	ctx := context.Background()
	rows := []model.AssignmentRow{
		{Vessel: "A", Berth: "B1", ETA: at(0), ETD: at(10), LOAM: 300, StartMeter: 0},
		{Vessel: "B", Berth: "B1", ETA: at(5), ETD: at(12), LOAM: 200, StartMeter: 310},
		{Vessel: "C", Berth: "B2", ETA: at(14), ETD: at(20), LOAM: 250, StartMeter: 600},
	}
	first, err := store.CreateVersion(ctx, rows, model.SourceCrawler, "first")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	moved := model.CloneRows(rows)
	moved[1].ETA = at(10)
	second, err := store.CreateVersion(ctx, moved, model.SourceUserEdit, "second")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return store, first, second
}

func do(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestListVersions(t *testing.T) {
	store, first, second := seed(t)
	rr := do(t, NewHandler(store, Options{MinGapM: 30}), "/api/versions")
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var out []model.VersionSummary
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 2 || out[0].ID != second || out[1].ID != first {
		t.Fatalf("unexpected listing %#v", out)
	}
}

func TestListVersionsEmpty(t *testing.T) {
	rr := do(t, NewHandler(assignment.NewMemoryStore(), Options{}), "/api/versions")
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("expected empty array, got %s", rr.Body.String())
	}
}

func TestGetVersionScoped(t *testing.T) {
	store, first, _ := seed(t)
	h := NewHandler(store, Options{})
	rr := do(t, h, "/api/versions/"+first+"?berths=b1&to=2025-03-01T06:00:00Z")
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var v model.Version
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(v.Rows) != 2 {
		t.Fatalf("expected 2 rows in scope, got %d", len(v.Rows))
	}

	if rr := do(t, h, "/api/versions/"+first+"?from=yesterday"); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if rr := do(t, h, "/api/versions/nope"); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestViolationsLatestAndFirst(t *testing.T) {
	store, first, _ := seed(t)
	h := NewHandler(store, Options{MinGapM: 30})

	var body violationsBody
	rr := do(t, h, "/api/versions/"+first+"/violations")
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Report.Temporal) != 1 || len(body.Report.Spatial) != 1 {
		t.Fatalf("unexpected report %#v", body.Report)
	}
	if body.Count != 2 || len(body.Messages) != 2 {
		t.Fatalf("unexpected count %d / %v", body.Count, body.Messages)
	}

	rr = do(t, h, "/api/versions/latest/violations")
	body = violationsBody{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 0 {
		t.Fatalf("latest version should be clean, got %v", body.Messages)
	}
}

func TestDiff(t *testing.T) {
	store, first, second := seed(t)
	rr := do(t, NewHandler(store, Options{}), "/api/versions/"+first+"/diff/"+second)
	var body diffBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Changes) != 1 || body.Changes[0].Vessel != "B" || body.Changes[0].Kind != assignment.ChangeMoved {
		t.Fatalf("unexpected changes %#v", body.Changes)
	}
}

func TestExport(t *testing.T) {
	store, first, _ := seed(t)
	h := NewHandler(store, Options{})
	rr := do(t, h, "/api/versions/"+first+"/export")
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type %q", ct)
	}
	if lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n"); len(lines) != 4 {
		t.Fatalf("expected header and 3 rows, got %d lines", len(lines))
	}
	if rr := do(t, h, "/api/versions/"+first+"/export?format=pdf"); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestOccupancy(t *testing.T) {
	store, first, _ := seed(t)
	h := NewHandler(store, Options{})
	rr := do(t, h, "/api/versions/"+first+"/occupancy?from=2025-03-01T00:00:00Z&to=2025-03-02T00:00:00Z")
	var sum occupancy.Summary
	if err := json.Unmarshal(rr.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sum.Berths) != 2 || sum.Berths[0].Hours != 17 {
		t.Fatalf("unexpected summary %#v", sum)
	}

	rr = do(t, h, "/api/versions/"+first+"/occupancy?format=html")
	if !strings.Contains(rr.Body.String(), "<html") {
		t.Fatalf("expected html page")
	}
}
