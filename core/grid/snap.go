package grid

import (
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/berthplan/core/model"
)

// Interval is one of the supported time grid steps.
type Interval time.Duration

const (
	Hour        = Interval(time.Hour)
	HalfHour    = Interval(30 * time.Minute)
	QuarterHour = Interval(15 * time.Minute)
)

// ParseInterval accepts "1h", "30m" or "15m".
func ParseInterval(s string) (Interval, error) {
	switch s {
	case "1h":
		return Hour, nil
	case "30m":
		return HalfHour, nil
	case "15m":
		return QuarterHour, nil
	default:
		return 0, fmt.Errorf("unsupported snap interval %q (want 1h, 30m or 15m)", s)
	}
}

// Duration returns the interval as a time.Duration.
func (i Interval) Duration() time.Duration { return time.Duration(i) }

// String returns the configuration form of the interval.
func (i Interval) String() string {
	switch i {
	case Hour:
		return "1h"
	case HalfHour:
		return "30m"
	case QuarterHour:
		return "15m"
	default:
		return time.Duration(i).String()
	}
}

// Valid reports whether i is one of the supported steps.
func (i Interval) Valid() bool {
	return i == Hour || i == HalfHour || i == QuarterHour
}

// Snap rounds t to the nearest boundary of iv. Halfway values round up.
// The location of t is preserved.
func Snap(t time.Time, iv Interval) time.Time {
	if t.IsZero() || iv <= 0 {
		return t
	}
	// time.Round works on absolute time since the zero time, which is aligned
	// with every supported step, and rounds halfway values up.
	return t.Round(time.Duration(iv)).In(t.Location())
}

// SnapRow snaps both ends of the occupation window.
func SnapRow(r model.AssignmentRow, iv Interval) model.AssignmentRow {
	r.ETA = Snap(r.ETA, iv)
	r.ETD = Snap(r.ETD, iv)
	return r
}

// SnapPosition snaps the row's start meter to the metre grid of its berth's
// terminal. Rows on berths unknown to ref are returned unchanged.
func SnapPosition(r model.AssignmentRow, ref model.ReferenceData) model.AssignmentRow {
	b, ok := ref.Berth(r.Berth)
	if !ok {
		return r
	}
	if term, ok := ref.Terminal(b.TerminalID); ok {
		r.StartMeter = SnapMeters(r.StartMeter, term.GridM)
	}
	return r
}

// SnapRows returns a snapped copy of rows.
func SnapRows(rows []model.AssignmentRow, iv Interval) []model.AssignmentRow {
	out := make([]model.AssignmentRow, len(rows))
	for i, r := range rows {
		out[i] = SnapRow(r, iv)
	}
	return out
}

// SnapMeters rounds a quay position to the nearest multiple of gridM,
// halfway values rounding up. A non-positive grid leaves m unchanged.
func SnapMeters(m, gridM float64) float64 {
	if gridM <= 0 {
		return m
	}
	return math.Floor(m/gridM+0.5) * gridM
}
