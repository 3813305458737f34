package grid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/berthplan/core/model"
)

func at(h, m, s int) time.Time {
	return time.Date(2025, 3, 1, h, m, s, 0, time.UTC)
}

func TestParseInterval(t *testing.T) {
	for s, want := range map[string]Interval{"1h": Hour, "30m": HalfHour, "15m": QuarterHour} {
		got, err := ParseInterval(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, s, got.String())
		assert.True(t, got.Valid())
	}
	_, err := ParseInterval("10m")
	assert.Error(t, err)
}

func TestSnapNearest(t *testing.T) {
	cases := []struct {
		in   time.Time
		iv   Interval
		want time.Time
	}{
		{at(10, 29, 59), Hour, at(10, 0, 0)},
		{at(10, 30, 0), Hour, at(11, 0, 0)}, // tie rounds up
		{at(10, 31, 0), Hour, at(11, 0, 0)},
		{at(10, 14, 0), HalfHour, at(10, 0, 0)},
		{at(10, 15, 0), HalfHour, at(10, 30, 0)},
		{at(10, 7, 29), QuarterHour, at(10, 0, 0)},
		{at(10, 7, 30), QuarterHour, at(10, 15, 0)},
		{at(23, 50, 0), HalfHour, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		got := Snap(c.in, c.iv)
		if !got.Equal(c.want) {
			t.Errorf("Snap(%s, %s) = %s, want %s", c.in.Format(time.TimeOnly), c.iv, got, c.want)
		}
	}
}

func TestSnapIdempotent(t *testing.T) {
	start := at(0, 0, 0)
	for _, iv := range []Interval{Hour, HalfHour, QuarterHour} {
		for step := 0; step < 24*60*2; step += 7 {
			ts := start.Add(time.Duration(step) * 30 * time.Second)
			once := Snap(ts, iv)
			if twice := Snap(once, iv); !twice.Equal(once) {
				t.Fatalf("snap not idempotent for %s at %s: %s vs %s", iv, ts, once, twice)
			}
		}
	}
}

func TestSnapKeepsLocation(t *testing.T) {
	kst := time.FixedZone("KST", 9*3600)
	in := time.Date(2025, 3, 1, 9, 40, 0, 0, kst)
	got := Snap(in, Hour)
	assert.Equal(t, kst, got.Location())
	assert.Equal(t, 10, got.Hour())
	assert.Equal(t, 0, got.Minute())
}

func TestSnapRow(t *testing.T) {
	r := model.AssignmentRow{Vessel: "V1", Berth: "B1", ETA: at(9, 50, 0), ETD: at(14, 10, 0)}
	got := SnapRow(r, Hour)
	assert.True(t, got.ETA.Equal(at(10, 0, 0)))
	assert.True(t, got.ETD.Equal(at(14, 0, 0)))
	assert.True(t, r.ETA.Equal(at(9, 50, 0)), "input must not change")
}

func TestSnapMeters(t *testing.T) {
	assert.Equal(t, 250.0, SnapMeters(254.9, 10))
	assert.Equal(t, 260.0, SnapMeters(255, 10))
	assert.Equal(t, 13.3, SnapMeters(13.3, 0))
}

func TestSnapPosition(t *testing.T) {
	ref := model.ReferenceData{
		Terminals: []model.Terminal{{ID: "T", GridM: 10}, {ID: "U"}},
		Berths: []model.Berth{
			{ID: "T-1", TerminalID: "T"},
			{ID: "U-1", TerminalID: "U"},
		},
	}
	r := model.AssignmentRow{Vessel: "V", Berth: "T-1", StartMeter: 225}
	assert.Equal(t, 230.0, SnapPosition(r, ref).StartMeter)

	r.Berth = "U-1"
	assert.Equal(t, 225.0, SnapPosition(r, ref).StartMeter, "terminal without grid")
	r.Berth = "X"
	assert.Equal(t, 225.0, SnapPosition(r, ref).StartMeter, "unknown berth")
}
