package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/npole/herodispatch/api/heroes"
	"github.com/npole/herodispatch/api/places"
	"github.com/npole/herodispatch/api/requests"
	"github.com/npole/herodispatch/config"
	"github.com/npole/herodispatch/core/delivery"
	"github.com/npole/herodispatch/core/dispatch"
	"github.com/npole/herodispatch/core/eta"
	coremetrics "github.com/npole/herodispatch/core/metrics"
	"github.com/npole/herodispatch/core/notify"
	"github.com/npole/herodispatch/core/store"
	"github.com/npole/herodispatch/infra/geocode"
	"github.com/npole/herodispatch/infra/logger"
	"github.com/npole/herodispatch/infra/metrics"
	infranotify "github.com/npole/herodispatch/infra/notify"
	infrapricing "github.com/npole/herodispatch/infra/pricing"
	infrastore "github.com/npole/herodispatch/infra/store"
)

// Service wires the stores, dispatch manager, delivery simulator and HTTP API
// from the configuration.
type Service struct {
	Manager     *dispatch.Manager
	Simulator   *delivery.Simulator
	Coordinator *delivery.Coordinator
	Mux         *http.ServeMux

	cfg     *config.Config
	log     logger.Logger
	closers []func() error
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	svc := &Service{cfg: cfg, log: logg}

	var requestStore store.RequestStore
	var heroStore store.HeroStore
	switch cfg.Storage.Backend {
	case "sqlite":
		db, err := infrastore.Open(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		svc.closers = append(svc.closers, db.Close)
		requestStore = db.Requests()
		heroStore = db.Heroes()
	default:
		requestStore = store.NewMemoryRequests()
		heroStore = store.NewMemoryHeroes()
	}

	roster, err := cfg.Roster()
	if err != nil {
		return nil, fmt.Errorf("roster: %w", err)
	}
	for _, h := range roster {
		if _, err := heroStore.Get(h.ID); errors.Is(err, store.ErrNotFound) {
			if err := heroStore.Put(h); err != nil {
				return nil, fmt.Errorf("seed hero %s: %w", h.ID, err)
			}
		} else if err != nil {
			return nil, fmt.Errorf("seed hero %s: %w", h.ID, err)
		}
	}

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(prometheus.DefaultRegisterer)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sink := metrics.NewInfluxSinkWithFallback(cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket)
		if closer, ok := sink.(interface{ Close() }); ok {
			svc.closers = append(svc.closers, func() error { closer.Close(); return nil })
		}
		sinks = append(sinks, sink)
	}
	var sink coremetrics.Sink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	calc, err := eta.New(cfg.ETA)
	if err != nil {
		return nil, fmt.Errorf("eta calculator: %w", err)
	}

	manager, err := dispatch.NewManager(heroStore, requestStore, calc, sink, logger.New("dispatch"))
	if err != nil {
		return nil, fmt.Errorf("dispatch manager: %w", err)
	}
	sim, err := delivery.NewSimulator(requestStore, logger.New("delivery"))
	if err != nil {
		return nil, fmt.Errorf("simulator: %w", err)
	}
	svc.closers = append(svc.closers, func() error { sim.Close(); return nil })

	notifiers := []notify.Notifier{infranotify.NewLogNotifier()}
	if cfg.Notify.Enabled {
		mq, err := infranotify.NewMQTTNotifier(cfg.Notify)
		if err != nil {
			logg.Warnf("mqtt notifier disabled: %v", err)
		} else {
			svc.closers = append(svc.closers, func() error { mq.Close(); return nil })
			notifiers = append(notifiers, mq)
		}
	}

	coord, err := delivery.NewCoordinator(sim, manager, heroStore, requestStore, notify.Multi(notifiers), sink, logger.New("coordinator"))
	if err != nil {
		return nil, fmt.Errorf("coordinator: %w", err)
	}

	mux := http.NewServeMux()
	requests.NewHandler(requestStore, heroStore, manager, sim, calc, infrapricing.NewStaticEstimator(), logger.New("api")).Register(mux)
	heroes.NewHandler(heroStore, requestStore, sim, logger.New("api")).Register(mux)
	places.NewHandler(geocode.New(cfg.Geocode)).Register(mux)

	svc.Manager = manager
	svc.Simulator = sim
	svc.Coordinator = coord
	svc.Mux = mux
	return svc, nil
}

// Run starts the HTTP server and the completion cascade, blocking until the
// context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	go s.Coordinator.Run(ctx)

	if restarted, err := s.Coordinator.Reconcile(); err != nil {
		s.log.Errorf("reconcile: %v", err)
	} else if restarted > 0 {
		s.log.Infof("restarted %d stalled deliveries", restarted)
	}

	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr, s.log); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	srv := &http.Server{Addr: s.cfg.Server.Addr, Handler: s.Mux}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}
