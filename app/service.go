package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kilianp07/prodsched/api/schedule"
	"github.com/kilianp07/prodsched/app/plugins"
	"github.com/kilianp07/prodsched/config"
	coremetrics "github.com/kilianp07/prodsched/core/metrics"
	"github.com/kilianp07/prodsched/core/model"
	coremon "github.com/kilianp07/prodsched/core/monitoring"
	"github.com/kilianp07/prodsched/core/runlog"
	"github.com/kilianp07/prodsched/core/scheduler"
	"github.com/kilianp07/prodsched/core/store"
	"github.com/kilianp07/prodsched/infra/logger"
	"github.com/kilianp07/prodsched/infra/metrics"
	inframon "github.com/kilianp07/prodsched/infra/monitoring"
	"github.com/kilianp07/prodsched/infra/mqtt"
	"github.com/kilianp07/prodsched/internal/eventbus"
)

// Service wires the scheduling engine to its store, sinks and transports.
type Service struct {
	Engine *scheduler.Engine
	Store  store.Store
	Runs   runlog.Store
	cfg    *config.Config
	bus    *eventbus.Bus[scheduler.StateEvent]
	sink   coremetrics.RunSink
	mqtt   *mqtt.PahoClient
	log    logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	mon, err := inframon.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	st, err := plugins.NewStore(cfg.Store.Backend, map[string]any{"path": cfg.Store.Path})
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	svc := &Service{Store: st, cfg: cfg, log: logg}
	if err := svc.seed(context.Background(), time.Now()); err != nil {
		_ = svc.Close()
		return nil, err
	}

	sink, err := coremetrics.NewRunSink(cfg.Metrics.Sinks)
	if err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	svc.sink = sink

	runs, err := runlog.Open(cfg.RunLog)
	if err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("run log: %w", err)
	}
	svc.Runs = runs

	svc.bus = eventbus.New[scheduler.StateEvent](32)
	opts := []scheduler.Option{
		scheduler.WithLogger(logger.New("scheduler")),
		scheduler.WithSink(sink),
		scheduler.WithEventBus(svc.bus),
	}
	if runs != nil {
		opts = append(opts, scheduler.WithRunLog(runs))
	}
	if cfg.MQTT.Enabled {
		client, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			_ = svc.Close()
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		svc.mqtt = client
		opts = append(opts, scheduler.WithNotifier(client))
	}
	engine, err := scheduler.NewEngine(cfg.Scheduler, st, opts...)
	if err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("scheduler: %w", err)
	}
	svc.Engine = engine
	return svc, nil
}

// seed fills the store from the configured dataset. "demo" seeds the
// built-in dataset on the day of now.
func (s *Service) seed(ctx context.Context, now time.Time) error {
	src := s.cfg.Store.Dataset
	if src == "" {
		return nil
	}
	seeder, ok := s.Store.(store.Seeder)
	if !ok {
		return fmt.Errorf("store %s cannot be seeded", s.cfg.Store.Backend)
	}
	var d store.Dataset
	if src == "demo" {
		d = store.DemoDataset(now)
	} else {
		var err error
		if d, err = store.LoadDataset(src); err != nil {
			return fmt.Errorf("load dataset: %w", err)
		}
	}
	if err := seeder.Seed(ctx, d); err != nil {
		return fmt.Errorf("seed store: %w", err)
	}
	s.log.Infof("store seeded from %s: %d workers, %d orders", src, len(d.Workers), len(d.Orders))
	return nil
}

// Generate runs the scheduler for date.
func (s *Service) Generate(ctx context.Context, date time.Time) model.ScheduleResult {
	return s.Engine.GenerateSchedule(ctx, date)
}

// Handler returns the HTTP API of the service.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/schedule", schedule.NewScheduleHandler(s.Engine, s.cfg.HTTP.Token, time.Local))
	if s.Runs != nil {
		mux.Handle("/api/runs", schedule.NewRunsHandler(s.Runs, s.cfg.HTTP.Token))
	}
	return mux
}

// Run serves the HTTP API and metrics until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	metrics.StartEventCollector(ctx, s.bus, s.sink)
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	srv := &http.Server{Addr: s.cfg.HTTP.Addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("http server shutdown: %v", err)
		}
		cancel()
	}()
	s.log.Infof("serving schedule API on %s", s.cfg.HTTP.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	var errs []error
	if s.bus != nil {
		s.bus.Close()
	}
	if s.mqtt != nil {
		s.mqtt.Disconnect()
	}
	if s.Runs != nil {
		errs = append(errs, s.Runs.Close())
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	if c, ok := s.Store.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	coremon.Flush(2 * time.Second)
	return errors.Join(errs...)
}
