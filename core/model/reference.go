package model

// Terminal describes a quay line and the metre grid used to position vessels on it.
type Terminal struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	QuayLengthM float64 `json:"quay_length_m" yaml:"quay_length_m"`
	GridM       float64 `json:"grid_m" yaml:"grid_m"`
}

// Berth is a segment of a terminal's quay wall.
type Berth struct {
	ID         string  `json:"id" yaml:"id"`
	TerminalID string  `json:"terminal_id" yaml:"terminal_id"`
	Label      string  `json:"label" yaml:"label"`
	StartM     float64 `json:"start_m" yaml:"start_m"`
	LengthM    float64 `json:"length_m" yaml:"length_m"`
	MaxLOAM    float64 `json:"max_loa_m" yaml:"max_loa_m"`
}

// ReferenceData holds the slowly changing lookup tables.
type ReferenceData struct {
	Terminals []Terminal `json:"terminals" yaml:"terminals"`
	Berths    []Berth    `json:"berths" yaml:"berths"`
}

// Berth looks up a berth by id.
func (r ReferenceData) Berth(id string) (Berth, bool) {
	for _, b := range r.Berths {
		if b.ID == id {
			return b, true
		}
	}
	return Berth{}, false
}

// Terminal looks up a terminal by id.
func (r ReferenceData) Terminal(id string) (Terminal, bool) {
	for _, t := range r.Terminals {
		if t.ID == id {
			return t, true
		}
	}
	return Terminal{}, false
}
