package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/kilianp07/berthplan/api/session"
	"github.com/kilianp07/berthplan/api/versions"
	"github.com/kilianp07/berthplan/app/plugins"
	"github.com/kilianp07/berthplan/config"
	"github.com/kilianp07/berthplan/connectors"
	_ "github.com/kilianp07/berthplan/connectors/schedule"
	"github.com/kilianp07/berthplan/core/assignment"
	"github.com/kilianp07/berthplan/core/ingest"
	coremetrics "github.com/kilianp07/berthplan/core/metrics"
	coremon "github.com/kilianp07/berthplan/core/monitoring"
	coremqtt "github.com/kilianp07/berthplan/core/mqtt"
	"github.com/kilianp07/berthplan/core/reference"
	coresession "github.com/kilianp07/berthplan/core/session"
	"github.com/kilianp07/berthplan/infra/logger"
	"github.com/kilianp07/berthplan/infra/metrics"
	inframon "github.com/kilianp07/berthplan/infra/monitoring"
	"github.com/kilianp07/berthplan/infra/mqtt"
	"github.com/kilianp07/berthplan/internal/eventbus"
	"github.com/kilianp07/berthplan/jobs/crawl"
)

// Service wires the store, the HTTP API and the background jobs.
type Service struct {
	Store    assignment.Store
	Sessions *session.Manager
	Poller   *crawl.Poller

	cfg      *config.Config
	bus      *eventbus.Bus
	sink     coremetrics.MetricsSink
	notifier coremqtt.Notifier
	logFile  io.Closer
	log      logger.Logger
	handler  http.Handler
}

// SetupLogging applies the logging section. The returned closer releases the
// log file, if any.
func SetupLogging(cfg config.LoggingConfig) (io.Closer, error) {
	if err := logger.Configure(cfg.Level, cfg.Format); err != nil {
		return nil, err
	}
	if cfg.File.Path == "" {
		return nil, nil
	}
	f, err := logger.OpenFile(cfg.File)
	if err != nil {
		return nil, fmt.Errorf("log file: %w", err)
	}
	logger.SetOutput(io.MultiWriter(os.Stderr, f))
	return f, nil
}

// New creates a Service from the configuration and seeds reference data.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	logFile, err := SetupLogging(cfg.Logging)
	if err != nil {
		return nil, err
	}
	logg := logger.New("service")

	mon, err := inframon.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		logg.Warnf("sentry disabled: %v", err)
	} else {
		coremon.Init(mon)
	}

	st, err := plugins.OpenStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	svc := &Service{Store: st, cfg: cfg, bus: eventbus.New(), logFile: logFile, log: logg}
	if err := svc.init(ctx); err != nil {
		_ = svc.Close()
		return nil, err
	}
	return svc, nil
}

func (s *Service) init(ctx context.Context) error {
	cfg := s.cfg
	if _, err := reference.Upsert(ctx, s.Store, logger.New("reference")); err != nil {
		return err
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return fmt.Errorf("metrics sink: %w", err)
	}
	s.sink = sink

	if cfg.MQTT.Enabled() {
		n, err := mqtt.NewPahoNotifier(cfg.MQTT, logger.New("mqtt"))
		if err != nil {
			return fmt.Errorf("mqtt notifier: %w", err)
		}
		s.notifier = n
	}

	loc, err := ingest.LoadLocation(cfg.Planning.Location)
	if err != nil {
		return fmt.Errorf("planning location: %w", err)
	}
	if cfg.Crawl.Enabled() {
		src, err := connectors.NewSource(cfg.Crawl.Source)
		if err != nil {
			return fmt.Errorf("crawl source: %w", err)
		}
		s.Poller, err = crawl.NewPoller(src, s.Store, crawl.Config{
			Interval:      cfg.Crawl.Interval,
			Location:      loc,
			SkipUnchanged: cfg.Crawl.SkipUnchanged,
		}, s.bus, logger.New("crawl"))
		if err != nil {
			return err
		}
	}

	s.Sessions = session.NewManager(s.Store, session.Config{
		Session: coresession.Config{
			Interval: cfg.Planning.Interval(),
			MinGapM:  cfg.Planning.Gap(),
		},
		Reference: s.Store,
		Publisher: s.bus,
		IdleTTL:   cfg.API.SessionTTL,
		Log:       logger.New("session"),
	})

	mux := http.NewServeMux()
	vh := versions.NewHandler(s.Store, versions.Options{
		MinGapM:  cfg.Planning.Gap(),
		Location: loc,
		Log:      logger.New("api"),
	})
	mux.Handle("/api/versions", vh)
	mux.Handle("/api/versions/", vh)
	sh := s.Sessions.Handler()
	mux.Handle("/api/sessions", sh)
	mux.Handle("/api/sessions/", sh)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.Store.ListVersions(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
	s.handler = mux
	return nil
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler { return s.handler }

// Bus returns the event bus shared by the service components.
func (s *Service) Bus() *eventbus.Bus { return s.bus }

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	collected := metrics.StartEventCollector(ctx, s.bus, s.sink, logger.New("metrics"))
	if s.notifier != nil {
		mqtt.StartForwarder(ctx, s.bus, s.notifier, logger.New("mqtt"))
	}
	if s.Poller != nil {
		s.Poller.Start(ctx)
	}
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		coremon.Go("prom-server", func() {
			if err := metrics.StartPromServer(ctx, addr, nil); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		})
	}

	srv := &http.Server{Addr: s.cfg.API.Addr, Handler: s.handler, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	coremon.Go("api-server", func() {
		s.log.Infof("api listening on %s", s.cfg.API.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	})

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errc:
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Warnf("api shutdown: %v", err)
	}
	s.bus.Close()
	<-collected
	return runErr
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.notifier != nil {
		s.notifier.Close()
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	coremon.Flush(2 * time.Second)
	err := s.Store.Close()
	if s.logFile != nil {
		logger.SetOutput(nil)
		err = errors.Join(err, s.logFile.Close())
	}
	return err
}
