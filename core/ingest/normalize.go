package ingest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kilianp07/berthplan/core/model"
)

// DefaultLocation is used for timestamps without an explicit offset.
const DefaultLocation = "Asia/Seoul"

// layouts lists the timestamp formats the operator has been seen to publish.
var layouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006.01.02 15:04:05",
	"2006.01.02 15:04",
	"2006-01-02",
}

// Options tunes normalisation.
type Options struct {
	// Location applies to timestamps without an offset. Nil means Asia/Seoul,
	// falling back to a fixed +09:00 zone when tzdata is unavailable.
	Location *time.Location
}

// Result is the outcome of a successful normalisation.
type Result struct {
	Rows    []model.AssignmentRow
	Dropped int
	// Reasons holds one entry per dropped record, prefixed with its 1-based
	// record number.
	Reasons []string
}

type record struct {
	Vessel     string    `validate:"required"`
	Berth      string    `validate:"required"`
	ETA        time.Time `validate:"required"`
	ETD        time.Time `validate:"required,gtfield=ETA"`
	LOAM       float64   `validate:"gte=0"`
	StartMeter float64   `validate:"gte=0"`
}

var validate = validator.New()

// Normalize maps table columns to canonical names, parses every record and
// drops the ones that do not form a valid row. It fails when a required
// column is missing or when no record survives.
func Normalize(t RawTable, opts Options) (Result, error) {
	idx := columnIndex(t.Header)
	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return Result{}, &IngestionError{Missing: missing, Header: t.Header}
	}
	loc := opts.Location
	if loc == nil {
		loc = defaultLocation()
	}

	var res Result
	for i, rec := range t.Records {
		row, err := parseRecord(rec, idx, loc)
		if err != nil {
			res.Dropped++
			res.Reasons = append(res.Reasons, fmt.Sprintf("record %d: %v", i+1, err))
			continue
		}
		res.Rows = append(res.Rows, row)
	}
	if len(res.Rows) == 0 {
		return res, &IngestionError{Header: t.Header, Dropped: res.Dropped, Reason: "no valid rows"}
	}
	return res, nil
}

func parseRecord(rec []string, idx map[string]int, loc *time.Location) (model.AssignmentRow, error) {
	cell := func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	r := record{Vessel: cell(ColVessel), Berth: strings.ToUpper(cell(ColBerth))}
	var err error
	if r.ETA, err = ParseTime(cell(ColETA), loc); err != nil {
		return model.AssignmentRow{}, fmt.Errorf("eta: %w", err)
	}
	if r.ETD, err = ParseTime(cell(ColETD), loc); err != nil {
		return model.AssignmentRow{}, fmt.Errorf("etd: %w", err)
	}
	if r.LOAM, err = parseMeters(cell(ColLOA)); err != nil {
		return model.AssignmentRow{}, fmt.Errorf("loa: %w", err)
	}
	if r.StartMeter, err = parseMeters(cell(ColStartMeter)); err != nil {
		return model.AssignmentRow{}, fmt.Errorf("start meter: %w", err)
	}
	if err := validate.Struct(r); err != nil {
		return model.AssignmentRow{}, describe(err)
	}
	return model.AssignmentRow{
		Vessel:     r.Vessel,
		Berth:      r.Berth,
		ETA:        r.ETA,
		ETD:        r.ETD,
		LOAM:       r.LOAM,
		StartMeter: r.StartMeter,
	}, nil
}

// describe flattens validator errors into a short message.
func describe(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, strings.ToLower(fe.Field())+" is empty")
		case "gtfield":
			parts = append(parts, "etd is not after eta")
		default:
			parts = append(parts, fmt.Sprintf("%s fails %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
	}
	return errors.New(strings.Join(parts, "; "))
}

// ParseTime parses s with the known layouts. Layouts without an offset are
// interpreted in loc.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	for _, l := range layouts {
		if t, err := time.ParseInLocation(l, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func parseMeters(s string) (float64, error) {
	s = strings.TrimSuffix(strings.ReplaceAll(s, ",", ""), "m")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// LoadLocation resolves a zone name, treating "" as Asia/Seoul.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return defaultLocation(), nil
	}
	return time.LoadLocation(name)
}

func defaultLocation() *time.Location {
	if loc, err := time.LoadLocation(DefaultLocation); err == nil {
		return loc
	}
	return time.FixedZone("KST", 9*3600)
}
