// Package export writes assignment rows in the formats the ingest package
// reads back.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/berthplan/core/ingest"
	"github.com/kilianp07/berthplan/core/model"
)

// Header is the canonical CSV header.
var Header = []string{ingest.ColVessel, ingest.ColBerth, ingest.ColETA, ingest.ColETD, ingest.ColLOA, ingest.ColStartMeter}

// WriteJSON writes rows to w as a JSON array.
func WriteJSON(w io.Writer, rows []model.AssignmentRow) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// WriteCSV writes rows to w with the canonical header. Timestamps are
// rendered as RFC 3339 in loc, or UTC when loc is nil.
func WriteCSV(w io.Writer, rows []model.AssignmentRow, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.Vessel,
			r.Berth,
			r.ETA.In(loc).Format(time.RFC3339),
			r.ETD.In(loc).Format(time.RFC3339),
			strconv.FormatFloat(r.LOAM, 'f', -1, 64),
			strconv.FormatFloat(r.StartMeter, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Write dispatches on format, "csv" or "json".
func Write(w io.Writer, format string, rows []model.AssignmentRow, loc *time.Location) error {
	switch format {
	case "csv":
		return WriteCSV(w, rows, loc)
	case "json":
		return WriteJSON(w, rows)
	}
	return fmt.Errorf("unknown export format %q", format)
}
