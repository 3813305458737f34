package crawl

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/berthplan/core/assignment"
	"github.com/kilianp07/berthplan/core/events"
	"github.com/kilianp07/berthplan/core/ingest"
	"github.com/kilianp07/berthplan/core/model"
	"github.com/kilianp07/berthplan/internal/eventbus"
)

type stubSource struct {
	mu    sync.Mutex
	table ingest.RawTable
	err   error
	calls int
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Fetch(context.Context) (ingest.RawTable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.table, s.err
}

func (s *stubSource) set(t ingest.RawTable) {
	s.mu.Lock()
	s.table = t
	s.mu.Unlock()
}

type recorder struct {
	mu  sync.Mutex
	evs []eventbus.Event
}

func (r *recorder) Publish(e eventbus.Event) {
	r.mu.Lock()
	r.evs = append(r.evs, e)
	r.mu.Unlock()
}

func table(rows ...[]string) ingest.RawTable {
	return ingest.RawTable{Header: []string{"vessel", "berth", "eta", "etd", "loa", "start_meter"}, Records: rows}
}

var base = table(
	[]string{"HMM ALGECIRAS", "SND-1", "2025-03-01 10:00", "2025-03-02 08:00", "400", "0"},
	[]string{"MSC OSCAR", "SND-2", "2025-03-01 12:00", "2025-03-02 06:00", "395", "450"},
)

func TestRunOnceCreatesCrawlerVersion(t *testing.T) {
	store := assignment.NewMemoryStore()
	rec := &recorder{}
	p, err := NewPoller(&stubSource{table: base}, store, Config{}, rec, nil)
	require.NoError(t, err)

	out, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, out.Rows)
	assert.NotEmpty(t, out.VersionID)

	v, err := store.GetVersion(context.Background(), out.VersionID)
	require.NoError(t, err)
	assert.Equal(t, model.SourceCrawler, v.Source)
	assert.Contains(t, v.Label, "crawl stub")

	require.Len(t, rec.evs, 2)
	ing := rec.evs[0].(events.IngestEvent)
	assert.Equal(t, out.VersionID, ing.VersionID)
	assert.NoError(t, ing.Err)
	created := rec.evs[1].(events.VersionCreated)
	assert.Equal(t, 2, created.Rows)
}

func TestRunOnceSkipsUnchanged(t *testing.T) {
	store := assignment.NewMemoryStore()
	src := &stubSource{table: base}
	p, err := NewPoller(src, store, Config{SkipUnchanged: true}, nil, nil)
	require.NoError(t, err)

	first, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	second, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Empty(t, second.VersionID)

	src.set(table(base.Records[0]))
	third, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, third.Skipped)
	assert.NotEqual(t, first.VersionID, third.VersionID)

	vs, err := store.ListVersions(context.Background())
	require.NoError(t, err)
	assert.Len(t, vs, 2)
}

func TestRunOnceComparesAgainstCrawlerVersionsOnly(t *testing.T) {
	store := assignment.NewMemoryStore()
	p, err := NewPoller(&stubSource{table: base}, store, Config{SkipUnchanged: true}, nil, nil)
	require.NoError(t, err)
	_, err = p.RunOnce(context.Background())
	require.NoError(t, err)

	edited := []model.AssignmentRow{{Vessel: "X", Berth: "SND-1",
		ETA: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), ETD: time.Date(2025, 3, 1, 5, 0, 0, 0, time.UTC)}}
	_, err = store.CreateVersion(context.Background(), edited, model.SourceUserEdit, "edit")
	require.NoError(t, err)

	out, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, out.Skipped)
}

func TestRunOnceDropsBadRecords(t *testing.T) {
	store := assignment.NewMemoryStore()
	bad := table(base.Records[0], []string{"", "SND-1", "2025-03-01 10:00", "2025-03-02 08:00", "100", "0"})
	p, err := NewPoller(&stubSource{table: bad}, store, Config{}, nil, nil)
	require.NoError(t, err)

	out, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, out.Rows)
	assert.Equal(t, 1, out.Dropped)
	assert.Len(t, out.Reasons, 1)
}

func TestRunOnceErrors(t *testing.T) {
	store := assignment.NewMemoryStore()
	rec := &recorder{}
	src := &stubSource{err: errors.New("boom")}
	p, err := NewPoller(src, store, Config{}, rec, nil)
	require.NoError(t, err)

	_, err = p.RunOnce(context.Background())
	require.Error(t, err)
	require.Len(t, rec.evs, 1)
	assert.Error(t, rec.evs[0].(events.IngestEvent).Err)

	src.err = nil
	src.table = ingest.RawTable{Header: []string{"vessel"}}
	_, err = p.RunOnce(context.Background())
	assert.ErrorIs(t, err, ingest.ErrIngestion)

	vs, _ := store.ListVersions(context.Background())
	assert.Empty(t, vs)
}

func TestStartStopsOnCancel(t *testing.T) {
	store := assignment.NewMemoryStore()
	src := &stubSource{table: base}
	p, err := NewPoller(src, store, Config{Interval: 10 * time.Millisecond, SkipUnchanged: true}, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := p.Start(ctx)
	require.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return src.calls >= 2
	}, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
	vs, _ := store.ListVersions(context.Background())
	assert.Len(t, vs, 1)
}

func TestNewPollerRequiresSource(t *testing.T) {
	_, err := NewPoller(nil, assignment.NewMemoryStore(), Config{}, nil, nil)
	assert.Error(t, err)
}
