package validate

import (
	"fmt"
	"time"
)

// Kind identifies which rule a conflict breaks.
type Kind string

const (
	KindTemporal   Kind = "temporal"
	KindSpatial    Kind = "spatial"
	KindBerthLimit Kind = "berth-limit"
)

const timeLayout = "2006-01-02 15:04"

// Conflict is a single violation reported by a check.
type Conflict struct {
	Kind    Kind      `json:"kind"`
	VesselA string    `json:"vessel_a"`
	VesselB string    `json:"vessel_b,omitempty"`
	Berth   string    `json:"berth,omitempty"`
	From    time.Time `json:"from,omitempty"`
	To      time.Time `json:"to,omitempty"`
	GapM    float64   `json:"gap_m,omitempty"`
	LimitM  float64   `json:"limit_m,omitempty"`
	Detail  string    `json:"detail,omitempty"`
}

// String renders the operator-facing message.
func (c Conflict) String() string {
	switch c.Kind {
	case KindTemporal:
		return fmt.Sprintf("berth %s: %s and %s overlap from %s to %s",
			c.Berth, c.VesselA, c.VesselB, c.From.Format(timeLayout), c.To.Format(timeLayout))
	case KindSpatial:
		if c.GapM < 0 {
			return fmt.Sprintf("%s and %s overlap by %.1fm along the quay between %s and %s (minimum gap %.1fm)",
				c.VesselA, c.VesselB, -c.GapM, c.From.Format(timeLayout), c.To.Format(timeLayout), c.LimitM)
		}
		return fmt.Sprintf("%s and %s are %.1fm apart between %s and %s (minimum gap %.1fm)",
			c.VesselA, c.VesselB, c.GapM, c.From.Format(timeLayout), c.To.Format(timeLayout), c.LimitM)
	default:
		return fmt.Sprintf("berth %s: %s %s", c.Berth, c.VesselA, c.Detail)
	}
}

// Messages renders conflicts in order.
func Messages(cs []Conflict) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.String())
	}
	return out
}

// Overlap returns the intersection of the half-open windows [aStart, aEnd)
// and [bStart, bEnd). ok is false when the windows only touch or are disjoint.
func Overlap(aStart, aEnd, bStart, bEnd time.Time) (from, to time.Time, ok bool) {
	from = aStart
	if bStart.After(from) {
		from = bStart
	}
	to = aEnd
	if bEnd.Before(to) {
		to = bEnd
	}
	return from, to, from.Before(to)
}
