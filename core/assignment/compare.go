package assignment

import (
	"fmt"
	"sort"

	"github.com/kilianp07/berthplan/core/model"
)

// ChangeKind classifies a difference between two versions.
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeRemoved ChangeKind = "removed"
	ChangeMoved   ChangeKind = "moved"
)

// Change describes how one vessel call differs between two row sets.
type Change struct {
	Kind   ChangeKind           `json:"kind"`
	Vessel string               `json:"vessel"`
	Before *model.AssignmentRow `json:"before,omitempty"`
	After  *model.AssignmentRow `json:"after,omitempty"`
	Fields []string             `json:"fields,omitempty"`
}

// Compare matches rows of a and b by vessel and call order and reports the
// calls that were added, removed or moved. Identical calls are omitted.
func Compare(a, b []model.AssignmentRow) []Change {
	before := keyRows(a)
	after := keyRows(b)
	keys := make([]string, 0, len(before)+len(after))
	seen := map[string]bool{}
	for k := range before {
		keys = append(keys, k)
		seen[k] = true
	}
	for k := range after {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var out []Change
	for _, k := range keys {
		x, inA := before[k]
		y, inB := after[k]
		switch {
		case inA && !inB:
			out = append(out, Change{Kind: ChangeRemoved, Vessel: x.Vessel, Before: &x})
		case !inA && inB:
			out = append(out, Change{Kind: ChangeAdded, Vessel: y.Vessel, After: &y})
		default:
			if fields := changedFields(x, y); len(fields) > 0 {
				out = append(out, Change{Kind: ChangeMoved, Vessel: x.Vessel, Before: &x, After: &y, Fields: fields})
			}
		}
	}
	return out
}

func keyRows(rows []model.AssignmentRow) map[string]model.AssignmentRow {
	count := map[string]int{}
	out := make(map[string]model.AssignmentRow, len(rows))
	for _, r := range rows {
		n := count[r.Vessel]
		count[r.Vessel] = n + 1
		out[fmt.Sprintf("%s#%03d", r.Vessel, n)] = r
	}
	return out
}

func changedFields(x, y model.AssignmentRow) []string {
	var f []string
	if x.Berth != y.Berth {
		f = append(f, "berth")
	}
	if !x.ETA.Equal(y.ETA) {
		f = append(f, "eta")
	}
	if !x.ETD.Equal(y.ETD) {
		f = append(f, "etd")
	}
	if x.LOAM != y.LOAM {
		f = append(f, "loa_m")
	}
	if x.StartMeter != y.StartMeter {
		f = append(f, "start_meter")
	}
	return f
}
