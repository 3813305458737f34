package model

import (
	"errors"
	"fmt"
	"time"
)

// AssignmentRow is one vessel's planned occupation of a berth segment.
type AssignmentRow struct {
	Vessel     string    `json:"vessel"`
	Berth      string    `json:"berth"`
	ETA        time.Time `json:"eta"`
	ETD        time.Time `json:"etd"`
	LOAM       float64   `json:"loa_m"`       // length overall in metres
	StartMeter float64   `json:"start_meter"` // reference position along the quay
}

// Span returns the occupied interval along the quay axis.
func (r AssignmentRow) Span() (start, end float64) {
	return r.StartMeter, r.StartMeter + r.LOAM
}

// Validate checks the structural requirements of a row. It does not look at
// other rows; pairwise feasibility is the validator's job.
func (r AssignmentRow) Validate() error {
	if r.Vessel == "" {
		return errors.New("vessel is required")
	}
	if r.Berth == "" {
		return errors.New("berth is required")
	}
	if r.ETA.IsZero() || r.ETD.IsZero() {
		return errors.New("eta and etd are required")
	}
	if !r.ETA.Before(r.ETD) {
		return fmt.Errorf("eta %s must be before etd %s", r.ETA.Format(time.RFC3339), r.ETD.Format(time.RFC3339))
	}
	if r.LOAM < 0 {
		return fmt.Errorf("loa_m must be non-negative, got %g", r.LOAM)
	}
	if r.StartMeter < 0 {
		return fmt.Errorf("start_meter must be non-negative, got %g", r.StartMeter)
	}
	return nil
}

// CloneRows returns a copy of rows that shares no backing array with the input.
func CloneRows(rows []AssignmentRow) []AssignmentRow {
	if rows == nil {
		return nil
	}
	out := make([]AssignmentRow, len(rows))
	copy(out, rows)
	return out
}

// RowsEqual reports whether a and b hold the same rows in the same order.
// Timestamps are compared by instant, not by location.
func RowsEqual(a, b []AssignmentRow) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.Vessel != y.Vessel || x.Berth != y.Berth ||
			!x.ETA.Equal(y.ETA) || !x.ETD.Equal(y.ETD) ||
			x.LOAM != y.LOAM || x.StartMeter != y.StartMeter {
			return false
		}
	}
	return true
}

// EditDelta is a partial update coming from a drag/drop interaction on the
// timeline. Row is the index of the target row in the working copy.
type EditDelta struct {
	Row   int        `json:"row"`
	ETA   *time.Time `json:"new_eta,omitempty"`
	ETD   *time.Time `json:"new_etd,omitempty"`
	Berth *string    `json:"new_berth,omitempty"`
	// StartMeter moves the vessel along the quay.
	StartMeter *float64 `json:"new_start_meter,omitempty"`
}

// Empty reports whether the delta sets no field.
func (d EditDelta) Empty() bool {
	return d.ETA == nil && d.ETD == nil && d.Berth == nil && d.StartMeter == nil
}
