package validate

import (
	"fmt"
	"sort"

	"github.com/kilianp07/berthplan/core/model"
)

// TemporalConflicts reports every pair of rows sharing a berth whose
// occupation windows intersect. Each unordered pair appears once.
func TemporalConflicts(rows []model.AssignmentRow) []Conflict {
	byBerth := map[string][]int{}
	for i, r := range rows {
		byBerth[r.Berth] = append(byBerth[r.Berth], i)
	}
	berths := make([]string, 0, len(byBerth))
	for b := range byBerth {
		berths = append(berths, b)
	}
	sort.Strings(berths)

	var out []Conflict
	for _, b := range berths {
		idx := byBerth[b]
		for x := 0; x < len(idx); x++ {
			for y := x + 1; y < len(idx); y++ {
				ra, rb := rows[idx[x]], rows[idx[y]]
				from, to, ok := Overlap(ra.ETA, ra.ETD, rb.ETA, rb.ETD)
				if !ok {
					continue
				}
				out = append(out, Conflict{
					Kind: KindTemporal, VesselA: ra.Vessel, VesselB: rb.Vessel,
					Berth: b, From: from, To: to,
				})
			}
		}
	}
	return out
}

// TemporalOverlaps is the message form of TemporalConflicts.
func TemporalOverlaps(rows []model.AssignmentRow) []string {
	return Messages(TemporalConflicts(rows))
}

// SpatialConflicts reports every pair of simultaneously berthed rows whose
// quay spans are closer than minGapM. A gap of exactly minGapM is allowed.
func SpatialConflicts(rows []model.AssignmentRow, minGapM float64) []Conflict {
	var out []Conflict
	for i := 0; i < len(rows); i++ {
		for j := i + 1; j < len(rows); j++ {
			ra, rb := rows[i], rows[j]
			from, to, ok := Overlap(ra.ETA, ra.ETD, rb.ETA, rb.ETD)
			if !ok {
				continue
			}
			gap := Gap(ra, rb)
			if gap >= minGapM {
				continue
			}
			berth := ra.Berth
			if rb.Berth != ra.Berth {
				berth = ra.Berth + "/" + rb.Berth
			}
			out = append(out, Conflict{
				Kind: KindSpatial, VesselA: ra.Vessel, VesselB: rb.Vessel,
				Berth: berth, From: from, To: to, GapM: gap, LimitM: minGapM,
			})
		}
	}
	return out
}

// SpatialGaps is the message form of SpatialConflicts.
func SpatialGaps(rows []model.AssignmentRow, minGapM float64) []string {
	return Messages(SpatialConflicts(rows, minGapM))
}

// Gap returns the clear distance between the quay spans of a and b. It is
// negative when the spans overlap.
func Gap(a, b model.AssignmentRow) float64 {
	aStart, aEnd := a.Span()
	bStart, bEnd := b.Span()
	if aStart <= bStart {
		return bStart - aEnd
	}
	return aStart - bEnd
}

// BerthLimits flags rows longer than their berth allows or extending past the
// end of the terminal's quay. Rows on berths missing from ref are skipped.
func BerthLimits(rows []model.AssignmentRow, ref model.ReferenceData) []Conflict {
	var out []Conflict
	for _, r := range rows {
		b, ok := ref.Berth(r.Berth)
		if !ok {
			continue
		}
		if b.MaxLOAM > 0 && r.LOAM > b.MaxLOAM {
			out = append(out, Conflict{
				Kind: KindBerthLimit, VesselA: r.Vessel, Berth: r.Berth, LimitM: b.MaxLOAM,
				Detail: fmt.Sprintf("LOA %.0fm exceeds berth maximum %.0fm", r.LOAM, b.MaxLOAM),
			})
		}
		term, ok := ref.Terminal(b.TerminalID)
		if !ok || term.QuayLengthM <= 0 {
			continue
		}
		if _, end := r.Span(); end > term.QuayLengthM {
			out = append(out, Conflict{
				Kind: KindBerthLimit, VesselA: r.Vessel, Berth: r.Berth, LimitM: term.QuayLengthM,
				Detail: fmt.Sprintf("ends at %.0fm, past the %s quay end at %.0fm", end, term.ID, term.QuayLengthM),
			})
		}
	}
	return out
}
