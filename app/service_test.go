package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/berthplan/config"
	"github.com/kilianp07/berthplan/core/events"
	"github.com/kilianp07/berthplan/core/factory"
	"github.com/kilianp07/berthplan/core/model"
)

const schedule = "vessel,berth,eta,etd,loa,start_meter\n" +
	"V1,SND-1,2025-03-01 10:00,2025-03-01 14:00,200,0\n" +
	"V2,SND-1,2025-03-01 13:00,2025-03-01 16:00,150,250\n"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schedule.csv")
	require.NoError(t, os.WriteFile(path, []byte(schedule), 0o644))
	cfg := config.Default()
	cfg.Store = config.StoreConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "plan.db")}
	cfg.Crawl.Source = factory.ModuleConfig{Type: "file", Conf: map[string]any{"path": path}}
	cfg.Crawl.SkipUnchanged = true
	cfg.Logging.Level = "error"
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestServiceEndToEnd(t *testing.T) {
	ctx := context.Background()
	svc, err := New(ctx, testConfig(t))
	require.NoError(t, err)
	defer func() { require.NoError(t, svc.Close()) }()

	ref, err := svc.Store.ReferenceData(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, ref.Berths, "reference data must be seeded")

	sub := svc.Bus().Subscribe()
	require.NotNil(t, svc.Poller)
	out, err := svc.Poller.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Rows)

	select {
	case ev := <-sub:
		assert.IsType(t, events.IngestEvent{}, ev)
	case <-time.After(time.Second):
		t.Fatal("no ingest event")
	}

	srv := httptest.NewServer(svc.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/versions/latest/violations")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Count    int      `json:"count"`
		Messages []string `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, 1, body.Count, "one temporal overlap, gap 50m is clean: %v", body.Messages)
	assert.True(t, strings.Contains(body.Messages[0], "V1") && strings.Contains(body.Messages[0], "V2"))

	health, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)

	vs, err := svc.Store.ListVersions(ctx)
	require.NoError(t, err)
	require.Len(t, vs, 1)
	assert.Equal(t, model.SourceCrawler, vs[0].Source)
}

func TestNewRejectsUnknownSource(t *testing.T) {
	cfg := testConfig(t)
	cfg.Crawl.Source.Type = "ftp"
	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}
