package assignment

import (
	"testing"
	"time"

	"github.com/kilianp07/berthplan/core/model"
)

func TestInScope(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []model.AssignmentRow{
		{Vessel: "EARLY", Berth: "B1", ETA: base, ETD: base.Add(6 * time.Hour)},
		{Vessel: "INSIDE", Berth: "b2", ETA: base.Add(8 * time.Hour), ETD: base.Add(10 * time.Hour)},
		{Vessel: "LATE", Berth: "B1", ETA: base.Add(24 * time.Hour), ETD: base.Add(30 * time.Hour)},
	}
	s := Scope{From: base.Add(6 * time.Hour), To: base.Add(24 * time.Hour)}
	got := InScope(rows, s)
	if len(got) != 1 || got[0].Vessel != "INSIDE" {
		t.Fatalf("window filter failed: %#v", got)
	}
	s.Berths = ParseBerths(" B1 , ")
	if got := InScope(rows, s); len(got) != 0 {
		t.Fatalf("berth filter failed: %#v", got)
	}
	if got := InScope(rows, Scope{Berths: ParseBerths("B2")}); len(got) != 1 {
		t.Fatalf("case-insensitive berth filter failed: %#v", got)
	}
	if got := InScope(rows, Scope{}); len(got) != 3 {
		t.Fatalf("open scope should keep all rows")
	}
}

func TestCompare(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	a := []model.AssignmentRow{
		{Vessel: "KEEP", Berth: "B1", ETA: base, ETD: base.Add(time.Hour)},
		{Vessel: "MOVE", Berth: "B1", ETA: base, ETD: base.Add(time.Hour)},
		{Vessel: "GONE", Berth: "B2", ETA: base, ETD: base.Add(time.Hour)},
	}
	b := []model.AssignmentRow{
		{Vessel: "KEEP", Berth: "B1", ETA: base, ETD: base.Add(time.Hour)},
		{Vessel: "MOVE", Berth: "B3", ETA: base, ETD: base.Add(2 * time.Hour)},
		{Vessel: "NEW", Berth: "B2", ETA: base, ETD: base.Add(time.Hour)},
	}
	changes := Compare(a, b)
	if len(changes) != 3 {
		t.Fatalf("expected 3 changes got %#v", changes)
	}
	kinds := map[string]ChangeKind{}
	for _, c := range changes {
		kinds[c.Vessel] = c.Kind
	}
	if kinds["GONE"] != ChangeRemoved || kinds["NEW"] != ChangeAdded || kinds["MOVE"] != ChangeMoved {
		t.Fatalf("unexpected kinds %#v", kinds)
	}
	for _, c := range changes {
		if c.Vessel == "MOVE" && (len(c.Fields) != 2 || c.Fields[0] != "berth" || c.Fields[1] != "etd") {
			t.Fatalf("unexpected fields %#v", c.Fields)
		}
	}
	if len(Compare(a, a)) != 0 {
		t.Fatalf("identical sets must not differ")
	}
}
