// Package crawl polls a schedule source and stores every changed snapshot as
// a new crawler version.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/berthplan/connectors"
	"github.com/kilianp07/berthplan/core/assignment"
	"github.com/kilianp07/berthplan/core/events"
	"github.com/kilianp07/berthplan/core/ingest"
	"github.com/kilianp07/berthplan/core/logger"
	"github.com/kilianp07/berthplan/core/model"
	coremon "github.com/kilianp07/berthplan/core/monitoring"
	"github.com/kilianp07/berthplan/internal/eventbus"
)

// Store is the part of the assignment store the poller uses.
type Store interface {
	assignment.Creator
	assignment.Loader
	ListVersions(ctx context.Context) ([]model.VersionSummary, error)
}

// Publisher receives ingestion events.
type Publisher interface {
	Publish(e eventbus.Event)
}

// Config tunes the poller.
type Config struct {
	Interval time.Duration
	Location *time.Location
	// SkipUnchanged avoids a new version when the snapshot equals the most
	// recent crawler version.
	SkipUnchanged bool
}

// Outcome describes one crawl run.
type Outcome struct {
	VersionID string
	Rows      int
	Dropped   int
	Reasons   []string
	Skipped   bool
}

// Poller runs crawl iterations against one source.
type Poller struct {
	src   connectors.Source
	store Store
	cfg   Config
	bus   Publisher
	log   logger.Logger
	now   func() time.Time
}

// NewPoller wires a poller. bus and log may be nil.
func NewPoller(src connectors.Source, store Store, cfg Config, bus Publisher, log logger.Logger) (*Poller, error) {
	if src == nil || store == nil {
		return nil, errors.New("crawl: source and store are required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Minute
	}
	return &Poller{src: src, store: store, cfg: cfg, bus: bus, log: logger.OrNop(log), now: time.Now}, nil
}

// RunOnce fetches, normalises and stores one snapshot.
func (p *Poller) RunOnce(ctx context.Context) (Outcome, error) {
	start := p.now()
	out, err := p.run(ctx)
	ev := events.IngestEvent{
		Source:    p.src.Name(),
		VersionID: out.VersionID,
		Rows:      out.Rows,
		Dropped:   out.Dropped,
		Skipped:   out.Skipped,
		Err:       err,
		Duration:  p.now().Sub(start),
		Time:      p.now(),
	}
	p.publish(ev)
	if err != nil {
		return out, err
	}
	if out.Skipped {
		p.log.Infof("crawl %s: %d rows unchanged, no new version", p.src.Name(), out.Rows)
		return out, nil
	}
	p.log.Infof("crawl %s: version %s with %d rows (%d dropped)", p.src.Name(), out.VersionID, out.Rows, out.Dropped)
	p.publish(events.VersionCreated{
		VersionID: out.VersionID,
		Source:    model.SourceCrawler,
		Label:     p.label(),
		Rows:      out.Rows,
		Time:      p.now(),
	})
	return out, nil
}

func (p *Poller) run(ctx context.Context) (Outcome, error) {
	table, err := p.src.Fetch(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("fetch %s: %w", p.src.Name(), err)
	}
	res, err := ingest.Normalize(table, ingest.Options{Location: p.cfg.Location})
	if err != nil {
		return Outcome{Dropped: res.Dropped, Reasons: res.Reasons}, err
	}
	for _, r := range res.Reasons {
		p.log.Warnf("crawl %s: dropped %s", p.src.Name(), r)
	}
	out := Outcome{Rows: len(res.Rows), Dropped: res.Dropped, Reasons: res.Reasons}

	if p.cfg.SkipUnchanged {
		same, err := p.sameAsLatest(ctx, res.Rows)
		if err != nil {
			return out, err
		}
		if same {
			out.Skipped = true
			return out, nil
		}
	}
	id, err := p.store.CreateVersion(ctx, res.Rows, model.SourceCrawler, p.label())
	if err != nil {
		return out, err
	}
	out.VersionID = id
	return out, nil
}

func (p *Poller) sameAsLatest(ctx context.Context, rows []model.AssignmentRow) (bool, error) {
	versions, err := p.store.ListVersions(ctx)
	if err != nil {
		return false, err
	}
	for _, v := range versions {
		if v.Source != model.SourceCrawler {
			continue
		}
		prev, err := p.store.LoadAssignments(ctx, v.ID)
		if err != nil {
			return false, err
		}
		return model.RowsEqual(prev, rows), nil
	}
	return false, nil
}

func (p *Poller) label() string {
	loc := p.cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return fmt.Sprintf("crawl %s %s", p.src.Name(), p.now().In(loc).Format("2006-01-02 15:04"))
}

// Start runs RunOnce immediately and then on every tick until ctx is done.
// The returned channel is closed when the loop exits.
func (p *Poller) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	coremon.Go("crawl-poller", func() {
		defer close(done)
		ticker := time.NewTicker(p.cfg.Interval)
		defer ticker.Stop()
		for {
			if _, err := p.RunOnce(ctx); err != nil && ctx.Err() == nil {
				p.log.Errorf("crawl %s: %v", p.src.Name(), err)
				if !errors.Is(err, ingest.ErrIngestion) {
					coremon.CaptureException(err, map[string]string{"component": "crawl", "source": p.src.Name()})
				}
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	})
	return done
}

func (p *Poller) publish(e eventbus.Event) {
	if p.bus != nil {
		p.bus.Publish(e)
	}
}
