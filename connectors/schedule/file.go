package schedule

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kilianp07/berthplan/connectors"
	"github.com/kilianp07/berthplan/core/factory"
	"github.com/kilianp07/berthplan/core/ingest"
)

// FileConfig configures a FileSource.
type FileConfig struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Format string `json:"format"`
}

// FileSource reads the schedule from a local CSV or JSON file, re-read on
// every fetch.
type FileSource struct {
	cfg FileConfig
}

// NewFileSource returns a source for cfg.Path. An empty format is inferred
// from the file extension.
func NewFileSource(cfg FileConfig) (*FileSource, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("file source: path is required")
	}
	if cfg.Format == FormatAuto {
		if strings.EqualFold(filepath.Ext(cfg.Path), ".json") {
			cfg.Format = FormatJSON
		} else {
			cfg.Format = FormatCSV
		}
	}
	if err := checkFormat(cfg.Format); err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = filepath.Base(cfg.Path)
	}
	return &FileSource{cfg: cfg}, nil
}

// Name returns the configured source name.
func (s *FileSource) Name() string { return s.cfg.Name }

// Fetch reads and parses the file.
func (s *FileSource) Fetch(ctx context.Context) (ingest.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return ingest.RawTable{}, err
	}
	f, err := os.Open(s.cfg.Path)
	if err != nil {
		return ingest.RawTable{}, fmt.Errorf("open schedule: %w", err)
	}
	defer func() { _ = f.Close() }()
	return decode(f, s.cfg.Format)
}

func init() {
	_ = connectors.RegisterSource("file", func(conf map[string]any) (connectors.Source, error) {
		var c FileConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewFileSource(c)
	})
}
