package ingest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrIngestion is matched by every *IngestionError.
var ErrIngestion = errors.New("ingestion failed")

// IngestionError reports a table that cannot produce a version.
type IngestionError struct {
	Missing []string // required columns not found
	Header  []string // header as received
	Dropped int      // rows dropped before giving up
	Reason  string
}

func (e *IngestionError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("missing required columns %s (have %s)",
			strings.Join(e.Missing, ", "), strings.Join(e.Header, ", "))
	}
	if e.Dropped > 0 {
		return fmt.Sprintf("%s (%d rows dropped)", e.Reason, e.Dropped)
	}
	return e.Reason
}

// Is reports whether target is ErrIngestion.
func (e *IngestionError) Is(target error) bool { return target == ErrIngestion }
