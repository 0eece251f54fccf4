// Package scheduler drives the periodic refresh of every known app
// described in spec §4.4: once per cycle it walks the full app list and
// pushes a non-urgent task for each, backing off while every worker is
// busy so a saturated pool is never flooded with a whole catalog at
// once.
package scheduler

import (
	"context"
	"time"

	"github.com/joshjon/kit/log"

	"reviewgateway/internal/queue"
	"reviewgateway/internal/store"
)

// AvailabilityProbe is the minimal view of a worker pool the scheduler
// needs: whether at least one worker is currently idle.
type AvailabilityProbe interface {
	Available() bool
}

// Scheduler periodically pushes every known app onto the queue.
type Scheduler struct {
	store   store.Store
	queue   *queue.Queue
	workers []AvailabilityProbe
	delay   time.Duration
	logger  log.Logger
}

// New constructs a Scheduler. delay is the fixed sleep between cycles
// (spec §4.4 default: 10 seconds).
func New(s store.Store, q *queue.Queue, workers []AvailabilityProbe, delay time.Duration, logger log.Logger) *Scheduler {
	return &Scheduler{
		store:   s,
		queue:   q,
		workers: workers,
		delay:   delay,
		logger:  logger.With("component", "scheduler"),
	}
}

// Run blocks until ctx is cancelled, driving one refresh cycle per
// delay interval.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("scheduler starting", "delay", s.delay)
	for {
		if err := s.cycle(ctx); err != nil {
			s.logger.Info("scheduler stopping", "reason", err)
			return
		}

		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping", "reason", ctx.Err())
			return
		case <-time.After(s.delay):
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) error {
	apps, err := s.store.GetAppList(ctx)
	if err != nil {
		s.logger.Error("failed to list apps", "error", err)
		return nil
	}

	for _, app := range apps {
		if err := s.waitAvailable(ctx); err != nil {
			return err
		}
		s.queue.Push(app.ID, false)
	}
	return nil
}

// waitAvailable blocks until at least one worker reports available,
// racing the workers' availability latches with "first completes"
// semantics (spec §4.4). Workers expose availability as a poll-only
// latch, so the race is implemented as a short-interval probe rather
// than a channel select.
func (s *Scheduler) waitAvailable(ctx context.Context) error {
	if len(s.workers) == 0 {
		return nil
	}

	const probeInterval = 5 * time.Millisecond
	ticker := time.NewTicker(probeInterval)
	defer ticker.Stop()

	for {
		for _, w := range s.workers {
			if w.Available() {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
