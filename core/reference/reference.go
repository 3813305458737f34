// Package reference holds the compiled-in terminal and berth definitions and
// keeps the store's lookup tables in line with them.
package reference

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/berthplan/core/assignment"
	"github.com/kilianp07/berthplan/core/logger"
	"github.com/kilianp07/berthplan/core/model"
)

//go:embed terminals.yaml
var definitions []byte

// Upserter is the part of a store the reference loader writes to.
type Upserter interface {
	UpsertReferenceData(ctx context.Context, ref model.ReferenceData) (assignment.UpsertResult, error)
}

// Defaults parses the embedded definitions.
func Defaults() (model.ReferenceData, error) {
	return Parse(definitions)
}

// Parse decodes YAML reference data and checks it is consistent.
func Parse(data []byte) (model.ReferenceData, error) {
	var ref model.ReferenceData
	if err := yaml.Unmarshal(data, &ref); err != nil {
		return model.ReferenceData{}, fmt.Errorf("parse reference data: %w", err)
	}
	if err := Check(ref); err != nil {
		return model.ReferenceData{}, err
	}
	return ref, nil
}

// Check verifies ids are unique, berths belong to a known terminal and lie
// within its quay.
func Check(ref model.ReferenceData) error {
	var errs []error
	terminals := make(map[string]model.Terminal, len(ref.Terminals))
	for _, t := range ref.Terminals {
		if t.ID == "" {
			errs = append(errs, errors.New("terminal with empty id"))
			continue
		}
		if _, dup := terminals[t.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate terminal %q", t.ID))
		}
		if t.QuayLengthM <= 0 {
			errs = append(errs, fmt.Errorf("terminal %q: quay length must be positive", t.ID))
		}
		terminals[t.ID] = t
	}
	seen := make(map[string]bool, len(ref.Berths))
	for _, b := range ref.Berths {
		if b.ID == "" {
			errs = append(errs, errors.New("berth with empty id"))
			continue
		}
		if seen[b.ID] {
			errs = append(errs, fmt.Errorf("duplicate berth %q", b.ID))
		}
		seen[b.ID] = true
		t, ok := terminals[b.TerminalID]
		if !ok {
			errs = append(errs, fmt.Errorf("berth %q: unknown terminal %q", b.ID, b.TerminalID))
			continue
		}
		if b.StartM < 0 || b.LengthM <= 0 || b.StartM+b.LengthM > t.QuayLengthM {
			errs = append(errs, fmt.Errorf("berth %q: span %.0f-%.0fm outside quay of %s",
				b.ID, b.StartM, b.StartM+b.LengthM, t.ID))
		}
	}
	return errors.Join(errs...)
}

// Upsert writes the compiled-in definitions to s. It is idempotent and meant
// to run on every start.
func Upsert(ctx context.Context, s Upserter, log logger.Logger) (assignment.UpsertResult, error) {
	ref, err := Defaults()
	if err != nil {
		return assignment.UpsertResult{}, err
	}
	res, err := s.UpsertReferenceData(ctx, ref)
	if err != nil {
		return res, fmt.Errorf("upsert reference data: %w", err)
	}
	log.Infof("reference data: %d inserted, %d updated, %d unchanged", res.Inserted, res.Updated, res.Unchanged)
	return res, nil
}
