package app

import (
	"context"
	"fmt"
	"time"

	"github.com/joshjon/kit/log"
	"github.com/joshjon/kit/server"

	"reviewgateway/internal/itunes"
	"reviewgateway/internal/queue"
	"reviewgateway/internal/reviews"
	"reviewgateway/internal/reviewsapi"
	"reviewgateway/internal/scheduler"
	"reviewgateway/internal/store"
	"reviewgateway/internal/worker"
)

// Run wires the store, upstream adapter, queue, worker pool, scheduler
// and HTTP server together and blocks until ctx is cancelled.
func Run(ctx context.Context, logger log.Logger, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	s, err := initStore(cfg)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	for _, appID := range cfg.StorageInitialAppIDs {
		if _, known, err := s.GetApp(ctx, appID); err != nil {
			return fmt.Errorf("seed app %s: %w", appID, err)
		} else if !known {
			if err := s.CreateApp(ctx, reviews.App{ID: appID}); err != nil {
				return fmt.Errorf("seed app %s: %w", appID, err)
			}
		}
	}

	q := queue.New()
	upstream := itunes.NewHTTPAdapter(cfg.HTTPExternalRSSHost, cfg.HTTPExternalRSSTimeout)
	defer upstream.Close()

	workers := make([]*worker.Worker, cfg.PollingWorkersNum)
	probes := make([]scheduler.AvailabilityProbe, cfg.PollingWorkersNum)
	for i := range workers {
		w := worker.New(i, s, q, upstream, cfg.PollingReviewsDepth, logger)
		workers[i] = w
		probes[i] = w
	}
	for _, w := range workers {
		go w.Run(ctx)
	}

	if cfg.SchedulerEnabled {
		sch := scheduler.New(s, q, probes, cfg.SchedulerDelay, logger)
		go sch.Run(ctx)
	} else {
		logger.Info("scheduler disabled, cache refreshes only on request-path pushes")
	}

	return serve(ctx, logger, cfg, s, q)
}

func initStore(cfg Config) (store.Store, error) {
	if cfg.StoragePath == "" {
		return store.NewMemStore(), nil
	}
	return store.NewFileStore(cfg.StoragePath)
}

func serve(ctx context.Context, logger log.Logger, cfg Config, s store.Store, q *queue.Queue) error {
	opts := []server.Option{
		server.WithLogger(logger),
		server.WithRequestTimeout(server.DefaultRequestTimeout, "/reviews/:app_id"),
	}
	if len(cfg.CorsOrigins) > 0 {
		opts = append(opts, server.WithCORS(cfg.CorsOrigins...))
	}

	srv, err := server.NewServer(cfg.Port, opts...)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	srv.Register(cfg.APIPrefix, reviewsapi.NewHTTPHandler(s, q))

	return Serve(ctx, logger, srv)
}

// Serve starts the server and blocks until the context is cancelled.
func Serve(ctx context.Context, logger log.Logger, srv *server.Server) error {
	errs := make(chan error)

	logger.Info("starting server", "address", srv.Address())
	go func() {
		defer close(errs)
		if err := srv.Start(); err != nil {
			errs <- fmt.Errorf("start server: %w", err)
		}
	}()
	defer func() { _ = srv.Stop(ctx) }()

	if err := srv.WaitHealthy(15, time.Second); err != nil {
		return err
	}
	logger.Info("server healthy")

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		logger.Info("server stopped")
		return nil
	}
}
