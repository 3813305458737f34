package chart

import (
	"strings"
	"testing"
	"time"

	"github.com/kilianp07/berthplan/core/occupancy"
)

func TestUtilisationHTML(t *testing.T) {
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	s := occupancy.Summary{
		From: from,
		To:   from.Add(24 * time.Hour),
		Berths: []occupancy.BerthUsage{
			{Berth: "SND-1", Calls: 2, Hours: 18, Ratio: 0.75},
			{Berth: "SND-2", Calls: 0},
		},
	}
	html, err := UtilisationHTML(s, "")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"<html", "Berth utilisation", "SND-1", "SND-2", "75"} {
		if !strings.Contains(html, want) {
			t.Fatalf("output missing %q", want)
		}
	}
}
