package config

import (
	"fmt"

	"github.com/kilianp07/berthplan/core/grid"
)

// DefaultMinGapM is the clearance kept between simultaneous vessels.
const DefaultMinGapM = 30.0

// PlanningConfig holds the snap grid and validation thresholds.
type PlanningConfig struct {
	// SnapInterval is "1h", "30m" or "15m".
	SnapInterval string `json:"snap_interval"`
	// MinGapM is a pointer so an explicit 0 is kept.
	MinGapM *float64 `json:"min_gap_m"`
	// Location is the IANA zone of timestamps without an offset.
	Location string `json:"location"`
}

func (c *PlanningConfig) SetDefaults() {
	if c.SnapInterval == "" {
		c.SnapInterval = "30m"
	}
	if c.MinGapM == nil {
		v := DefaultMinGapM
		c.MinGapM = &v
	}
	if c.Location == "" {
		c.Location = "Asia/Seoul"
	}
}

func (c PlanningConfig) Validate() error {
	if _, err := grid.ParseInterval(c.SnapInterval); err != nil {
		return err
	}
	if c.MinGapM != nil && *c.MinGapM < 0 {
		return fmt.Errorf("min_gap_m must not be negative")
	}
	return nil
}

// Interval returns the parsed snap interval, falling back to 30m.
func (c PlanningConfig) Interval() grid.Interval {
	iv, err := grid.ParseInterval(c.SnapInterval)
	if err != nil {
		return grid.HalfHour
	}
	return iv
}

// Gap returns the minimum gap in metres.
func (c PlanningConfig) Gap() float64 {
	if c.MinGapM == nil {
		return DefaultMinGapM
	}
	return *c.MinGapM
}
