// Package occupancy measures how busy berths and quays are over a planning
// window.
package occupancy

import (
	"errors"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/berthplan/core/model"
)

// ErrEmptyWindow is returned when the window does not have a positive length.
var ErrEmptyWindow = errors.New("occupancy window must end after it starts")

// BerthUsage is the utilisation of one berth.
type BerthUsage struct {
	Berth string  `json:"berth"`
	Calls int     `json:"calls"`
	Hours float64 `json:"hours"`
	// Ratio is occupied hours over window hours. It can exceed 1 when calls
	// overlap on the same berth.
	Ratio float64 `json:"ratio"`
}

// Summary aggregates berth utilisation over a window.
type Summary struct {
	From   time.Time    `json:"from"`
	To     time.Time    `json:"to"`
	Berths []BerthUsage `json:"berths"`
	Mean   float64      `json:"mean"`
	StdDev float64      `json:"std_dev"`
	Peak   string       `json:"peak"`
}

// Compute returns per-berth utilisation over [from, to). Only the part of
// each call inside the window counts. Berths listed in ref with no calls are
// reported with zero usage.
func Compute(rows []model.AssignmentRow, from, to time.Time, ref *model.ReferenceData) (Summary, error) {
	if !to.After(from) {
		return Summary{}, ErrEmptyWindow
	}
	window := to.Sub(from).Hours()

	hours := map[string][]float64{}
	if ref != nil {
		for _, b := range ref.Berths {
			hours[b.ID] = nil
		}
	}
	for _, r := range rows {
		start, end := r.ETA, r.ETD
		if start.Before(from) {
			start = from
		}
		if end.After(to) {
			end = to
		}
		if !end.After(start) {
			continue
		}
		hours[r.Berth] = append(hours[r.Berth], end.Sub(start).Hours())
	}

	names := make([]string, 0, len(hours))
	for b := range hours {
		names = append(names, b)
	}
	sort.Strings(names)

	s := Summary{From: from, To: to, Berths: make([]BerthUsage, 0, len(names))}
	ratios := make([]float64, 0, len(names))
	for _, b := range names {
		h := floats.Sum(hours[b])
		u := BerthUsage{Berth: b, Calls: len(hours[b]), Hours: h, Ratio: h / window}
		s.Berths = append(s.Berths, u)
		ratios = append(ratios, u.Ratio)
	}
	if len(ratios) == 0 {
		return s, nil
	}
	if len(ratios) == 1 {
		s.Mean = ratios[0]
	} else {
		s.Mean, s.StdDev = stat.MeanStdDev(ratios, nil)
	}
	s.Peak = names[floats.MaxIdx(ratios)]
	return s, nil
}

// QuayLoad returns the fraction of quay metre-hours used by the rows of one
// terminal over [from, to).
func QuayLoad(rows []model.AssignmentRow, from, to time.Time, ref model.ReferenceData, terminalID string) (float64, error) {
	if !to.After(from) {
		return 0, ErrEmptyWindow
	}
	t, ok := ref.Terminal(terminalID)
	if !ok || t.QuayLengthM <= 0 {
		return 0, errors.New("occupancy: unknown terminal or quay length " + terminalID)
	}
	var weights, spans []float64
	for _, r := range rows {
		b, ok := ref.Berth(r.Berth)
		if !ok || b.TerminalID != terminalID {
			continue
		}
		start, end := r.ETA, r.ETD
		if start.Before(from) {
			start = from
		}
		if end.After(to) {
			end = to
		}
		if !end.After(start) {
			continue
		}
		weights = append(weights, r.LOAM)
		spans = append(spans, end.Sub(start).Hours())
	}
	if len(spans) == 0 {
		return 0, nil
	}
	return floats.Dot(weights, spans) / (t.QuayLengthM * to.Sub(from).Hours()), nil
}
