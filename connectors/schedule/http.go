// Package schedule implements schedule sources backed by an HTTP endpoint
// or a local file.
package schedule

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/kilianp07/berthplan/connectors"
	"github.com/kilianp07/berthplan/core/factory"
	"github.com/kilianp07/berthplan/core/ingest"
)

// Formats understood by the sources.
const (
	FormatAuto = ""
	FormatCSV  = "csv"
	FormatJSON = "json"
)

const maxBody = 16 << 20

// HTTPConfig configures an HTTPSource.
type HTTPConfig struct {
	Name    string            `json:"name"`
	URL     string            `json:"url"`
	Format  string            `json:"format"`
	Headers map[string]string `json:"headers"`
	Timeout time.Duration     `json:"timeout"`
}

// HTTPSource downloads the schedule as CSV or a JSON array of objects.
type HTTPSource struct {
	cfg    HTTPConfig
	client *http.Client
}

// NewHTTPSource validates cfg and returns a source.
func NewHTTPSource(cfg HTTPConfig) (*HTTPSource, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("http source: url is required")
	}
	if err := checkFormat(cfg.Format); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Name == "" {
		cfg.Name = "http"
	}
	return &HTTPSource{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}, nil
}

// Name returns the configured source name.
func (s *HTTPSource) Name() string { return s.cfg.Name }

// Fetch downloads and parses one snapshot.
func (s *HTTPSource) Fetch(ctx context.Context) (ingest.RawTable, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		return ingest.RawTable{}, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range s.cfg.Headers {
		req.Header.Set(k, v)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return ingest.RawTable{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body := io.LimitReader(resp.Body, maxBody)
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(body, 512))
		return ingest.RawTable{}, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, snippet)
	}
	format := s.cfg.Format
	if format == FormatAuto {
		format = formatFromContentType(resp.Header.Get("Content-Type"))
	}
	return decode(body, format)
}

func formatFromContentType(ct string) string {
	mt, _, err := mime.ParseMediaType(ct)
	if err == nil && strings.HasSuffix(mt, "json") {
		return FormatJSON
	}
	return FormatCSV
}

func decode(r io.Reader, format string) (ingest.RawTable, error) {
	if format == FormatJSON {
		return ingest.ReadJSON(r)
	}
	return ingest.ReadCSV(r)
}

func checkFormat(f string) error {
	switch f {
	case FormatAuto, FormatCSV, FormatJSON:
		return nil
	}
	return fmt.Errorf("unknown schedule format %q", f)
}

func init() {
	_ = connectors.RegisterSource("http", func(conf map[string]any) (connectors.Source, error) {
		var c HTTPConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewHTTPSource(c)
	})
}
