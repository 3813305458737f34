package reference

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kilianp07/berthplan/core/assignment"
	"github.com/kilianp07/berthplan/core/model"
	"github.com/kilianp07/berthplan/infra/logger"
)

func TestDefaults(t *testing.T) {
	ref, err := Defaults()
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if len(ref.Terminals) != 2 {
		t.Fatalf("expected 2 terminals, got %d", len(ref.Terminals))
	}
	snd, ok := ref.Terminal("SND")
	if !ok || snd.QuayLengthM != 1500 {
		t.Fatalf("unexpected SND terminal: %+v", snd)
	}
	gam, ok := ref.Berth("GAM-2")
	if !ok || gam.Label != "2(8)" || gam.StartM != 350 {
		t.Fatalf("unexpected GAM-2 berth: %+v", gam)
	}
	if len(ref.Berths) != 9 {
		t.Fatalf("expected 9 berths, got %d", len(ref.Berths))
	}
}

func TestCheckRejectsInconsistentData(t *testing.T) {
	ref := model.ReferenceData{
		Terminals: []model.Terminal{{ID: "T", QuayLengthM: 100}},
		Berths: []model.Berth{
			{ID: "T-1", TerminalID: "T", StartM: 50, LengthM: 80},
			{ID: "Z-1", TerminalID: "Z", LengthM: 10},
		},
	}
	err := Check(ref)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"T-1", "unknown terminal"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestParseInvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("terminals: [")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	s := assignment.NewMemoryStore()
	ctx := context.Background()
	first, err := Upsert(ctx, s, logger.NopLogger{})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if first.Inserted != 11 {
		t.Fatalf("expected 11 inserts, got %+v", first)
	}
	second, err := Upsert(ctx, s, logger.NopLogger{})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second != (assignment.UpsertResult{Unchanged: 11}) {
		t.Fatalf("expected all unchanged, got %+v", second)
	}
}

type failingStore struct{}

func (failingStore) UpsertReferenceData(context.Context, model.ReferenceData) (assignment.UpsertResult, error) {
	return assignment.UpsertResult{}, &assignment.PersistenceError{Op: "upsert", Err: errors.New("disk full")}
}

func TestUpsertPropagatesStoreError(t *testing.T) {
	_, err := Upsert(context.Background(), failingStore{}, logger.NopLogger{})
	if !assignment.IsPersistence(err) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}
