package ingest

import "strings"

// Canonical column names.
const (
	ColVessel     = "vessel"
	ColBerth      = "berth"
	ColETA        = "eta"
	ColETD        = "etd"
	ColLOA        = "loa_m"
	ColStartMeter = "start_meter"
)

// RequiredColumns must be present in every table.
var RequiredColumns = []string{ColVessel, ColBerth, ColETA, ColETD}

// aliases maps lower-cased source headers to canonical names. Headers already
// in canonical form map to themselves.
var aliases = map[string]string{
	"vessel":      ColVessel,
	"vessel_name": ColVessel,
	"선명":          ColVessel,
	"모선명":         ColVessel,
	"berth":       ColBerth,
	"선석":          ColBerth,
	"eta":         ColETA,
	"접안(예정)일시":    ColETA,
	"입항예정일시":      ColETA,
	"etd":         ColETD,
	"출항(예정)일시":    ColETD,
	"출항예정일시":      ColETD,
	"출항일시":        ColETD,
	"loa_m":       ColLOA,
	"loa":         ColLOA,
	"length":      ColLOA,
	"start_meter": ColStartMeter,
	"start":       ColStartMeter,
	"f":           ColStartMeter,
}

// Canonical returns the canonical name for a source header, or the trimmed
// lower-case header when it is unknown.
func Canonical(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	if c, ok := aliases[h]; ok {
		return c
	}
	return h
}

// columnIndex maps canonical names to the first matching column.
func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		c := Canonical(h)
		if _, dup := idx[c]; !dup {
			idx[c] = i
		}
	}
	return idx
}
