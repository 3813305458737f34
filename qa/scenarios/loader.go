// Package scenarios replays YAML planning scenarios through an edit session
// and checks the reported violations.
package scenarios

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/berthplan/core/grid"
	"github.com/kilianp07/berthplan/core/model"
)

const timeLayout = "2006-01-02 15:04"

type RowDef struct {
	Vessel     string  `yaml:"vessel"`
	Berth      string  `yaml:"berth"`
	ETA        string  `yaml:"eta"`
	ETD        string  `yaml:"etd"`
	LOAM       float64 `yaml:"loa_m"`
	StartMeter float64 `yaml:"start_meter"`
}

func (r RowDef) ToModel() (model.AssignmentRow, error) {
	eta, err := time.ParseInLocation(timeLayout, r.ETA, time.UTC)
	if err != nil {
		return model.AssignmentRow{}, fmt.Errorf("%s eta: %w", r.Vessel, err)
	}
	etd, err := time.ParseInLocation(timeLayout, r.ETD, time.UTC)
	if err != nil {
		return model.AssignmentRow{}, fmt.Errorf("%s etd: %w", r.Vessel, err)
	}
	return model.AssignmentRow{Vessel: r.Vessel, Berth: r.Berth, ETA: eta, ETD: etd, LOAM: r.LOAM, StartMeter: r.StartMeter}, nil
}

// EditDef moves one row. Empty fields are left unchanged.
type EditDef struct {
	Row        int      `yaml:"row"`
	ETA        string   `yaml:"eta,omitempty"`
	ETD        string   `yaml:"etd,omitempty"`
	Berth      string   `yaml:"berth,omitempty"`
	StartMeter *float64 `yaml:"start_meter,omitempty"`
}

func (e EditDef) ToModel() (model.EditDelta, error) {
	d := model.EditDelta{Row: e.Row, StartMeter: e.StartMeter}
	if e.ETA != "" {
		t, err := time.ParseInLocation(timeLayout, e.ETA, time.UTC)
		if err != nil {
			return d, err
		}
		d.ETA = &t
	}
	if e.ETD != "" {
		t, err := time.ParseInLocation(timeLayout, e.ETD, time.UTC)
		if err != nil {
			return d, err
		}
		d.ETD = &t
	}
	if e.Berth != "" {
		b := e.Berth
		d.Berth = &b
	}
	return d, nil
}

type Expected struct {
	Temporal int `yaml:"temporal"`
	Spatial  int `yaml:"spatial"`
	Limits   int `yaml:"limits"`
}

type Scenario struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	Interval    string    `yaml:"interval"`
	MinGapM     float64   `yaml:"min_gap_m"`
	Rows        []RowDef  `yaml:"rows"`
	Edits       []EditDef `yaml:"edits,omitempty"`
	// Reference enables berth limit checks against the built-in terminals.
	Reference bool     `yaml:"reference,omitempty"`
	Expected  Expected `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Interval == "" {
		sc.Interval = "30m"
	}
	if _, err := grid.ParseInterval(sc.Interval); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &sc, nil
}
