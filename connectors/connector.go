// Package connectors defines where schedule snapshots come from. Concrete
// sources register themselves by type name; see connectors/schedule.
package connectors

import (
	"context"

	"github.com/kilianp07/berthplan/core/factory"
	"github.com/kilianp07/berthplan/core/ingest"
)

// Source fetches one snapshot of the operator's published schedule.
type Source interface {
	Fetch(ctx context.Context) (ingest.RawTable, error)
	// Name identifies the source in logs, metrics and version labels.
	Name() string
}

var sourceRegistry = factory.NewRegistry[Source]()

// RegisterSource adds a source factory identified by type name.
func RegisterSource(name string, f factory.Factory[Source]) error {
	return sourceRegistry.Register(name, f)
}

// NewSource builds the source described by cfg.
func NewSource(cfg factory.ModuleConfig) (Source, error) {
	return sourceRegistry.Create(cfg)
}

// SourceTypes lists the registered source types.
func SourceTypes() []string { return sourceRegistry.Types() }
