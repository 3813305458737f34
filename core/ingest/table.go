// Package ingest turns the operator's published schedule into assignment rows.
// It is the only place that knows the operator's column names.
package ingest

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// RawTable is an untyped table as produced by a crawler or a CSV upload.
type RawTable struct {
	Header  []string
	Records [][]string
}

// Len returns the number of data records.
func (t RawTable) Len() int { return len(t.Records) }

// ReadCSV reads a CSV table whose first line is the header. A UTF-8 BOM on the
// first header cell is ignored.
func ReadCSV(r io.Reader) (RawTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	all, err := cr.ReadAll()
	if err != nil {
		return RawTable{}, fmt.Errorf("read csv: %w", err)
	}
	if len(all) == 0 {
		return RawTable{}, errors.New("read csv: no header")
	}
	header := all[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return RawTable{Header: header, Records: all[1:]}, nil
}

// ReadJSON reads a JSON array of flat objects. The header is the sorted union
// of all keys; values are rendered with fmt so numbers and strings both work.
func ReadJSON(r io.Reader) (RawTable, error) {
	var objs []map[string]any
	if err := json.NewDecoder(r).Decode(&objs); err != nil {
		return RawTable{}, fmt.Errorf("read json: %w", err)
	}
	keys := map[string]bool{}
	for _, o := range objs {
		for k := range o {
			keys[k] = true
		}
	}
	header := make([]string, 0, len(keys))
	for k := range keys {
		header = append(header, k)
	}
	sort.Strings(header)
	t := RawTable{Header: header, Records: make([][]string, 0, len(objs))}
	for _, o := range objs {
		rec := make([]string, len(header))
		for i, k := range header {
			if v, ok := o[k]; ok && v != nil {
				rec[i] = fmt.Sprint(v)
			}
		}
		t.Records = append(t.Records, rec)
	}
	return t, nil
}
