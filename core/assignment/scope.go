package assignment

import (
	"sort"
	"strings"
	"time"

	"github.com/kilianp07/berthplan/core/model"
)

// Scope restricts a row set to a planning window and optional berth list.
type Scope struct {
	From   time.Time
	To     time.Time
	Berths []string
}

// ParseBerths splits a comma separated berth filter such as "B1, b2".
func ParseBerths(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}
	return out
}

// InScope returns the rows whose window intersects [From, To) and whose
// berth matches the filter, case-insensitively. Zero bounds are open.
func InScope(rows []model.AssignmentRow, s Scope) []model.AssignmentRow {
	keep := map[string]bool{}
	for _, b := range s.Berths {
		keep[strings.ToUpper(strings.TrimSpace(b))] = true
	}
	out := make([]model.AssignmentRow, 0, len(rows))
	for _, r := range rows {
		if !s.To.IsZero() && !r.ETA.Before(s.To) {
			continue
		}
		if !s.From.IsZero() && !r.ETD.After(s.From) {
			continue
		}
		if len(keep) > 0 && !keep[strings.ToUpper(r.Berth)] {
			continue
		}
		out = append(out, r)
	}
	return out
}

// SortReference orders terminals and berths by id.
func SortReference(ref *model.ReferenceData) {
	sort.Slice(ref.Terminals, func(i, j int) bool { return ref.Terminals[i].ID < ref.Terminals[j].ID })
	sort.Slice(ref.Berths, func(i, j int) bool { return ref.Berths[i].ID < ref.Berths[j].ID })
}
