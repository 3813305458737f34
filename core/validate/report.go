package validate

import "github.com/kilianp07/berthplan/core/model"

// Report groups the conflicts found in one row set.
type Report struct {
	Temporal []Conflict `json:"temporal"`
	Spatial  []Conflict `json:"spatial"`
	Limits   []Conflict `json:"limits,omitempty"`
}

// Check runs the temporal and spatial checks and, when ref is non-nil, the
// berth limits. Rows are checked as given.
func Check(rows []model.AssignmentRow, minGapM float64, ref *model.ReferenceData) Report {
	rep := Report{
		Temporal: TemporalConflicts(rows),
		Spatial:  SpatialConflicts(rows, minGapM),
	}
	if ref != nil {
		rep.Limits = BerthLimits(rows, *ref)
	}
	return rep
}

// All returns every conflict, temporal first.
func (r Report) All() []Conflict {
	out := make([]Conflict, 0, r.Len())
	out = append(out, r.Temporal...)
	out = append(out, r.Spatial...)
	return append(out, r.Limits...)
}

// Len returns the total number of conflicts.
func (r Report) Len() int { return len(r.Temporal) + len(r.Spatial) + len(r.Limits) }

// Messages renders every conflict, temporal first.
func (r Report) Messages() []string { return Messages(r.All()) }
