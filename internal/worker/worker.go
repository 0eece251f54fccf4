// Package worker runs the independent long-running executors described
// in spec §4.3: each pops a task off the queue, fetches and stores its
// reviews, and marks it complete — logging and swallowing any error so
// one bad app never stalls the pool.
package worker

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/joshjon/kit/log"

	"reviewgateway/internal/itunes"
	"reviewgateway/internal/queue"
	"reviewgateway/internal/reviews"
	"reviewgateway/internal/store"
	"reviewgateway/internal/task"
)

// Worker is one executor in the polling pool.
type Worker struct {
	id           int
	store        store.Store
	queue        *queue.Queue
	upstream     itunes.Adapter
	pollingDepth time.Duration
	logger       log.Logger
	available    atomic.Bool
}

// New constructs a Worker. pollingDepth is the freshness window from
// spec §4.3's stopping rule 3: pages whose last review predates
// now-pollingDepth are not followed by a next page.
func New(id int, s store.Store, q *queue.Queue, upstream itunes.Adapter, pollingDepth time.Duration, logger log.Logger) *Worker {
	return &Worker{
		id:           id,
		store:        s,
		queue:        q,
		upstream:     upstream,
		pollingDepth: pollingDepth,
		logger:       logger.With("component", "worker", "worker_id", id),
	}
}

// Available reports whether the worker is currently idle and ready to
// pop a task, used by the scheduler's backpressure wait.
func (w *Worker) Available() bool {
	return w.available.Load()
}

// Run enters the pop/process/complete loop and blocks until ctx is
// cancelled.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("worker starting")
	for {
		w.available.Store(true)
		t, err := w.queue.Pop(ctx)
		w.available.Store(false)
		if err != nil {
			w.logger.Info("worker stopping", "reason", err)
			return
		}

		if err := w.process(ctx, t); err != nil {
			w.logger.Error("error polling reviews", "app_id", t.AppID(), "error", err)
		}
		if ctx.Err() != nil {
			// Shutdown interrupted this task: it is abandoned without firing
			// its completion latch.
			w.logger.Info("worker stopping", "reason", ctx.Err(), "abandoned_app_id", t.AppID())
			return
		}
		w.queue.MarkComplete(t)
	}
}

// process implements the per-task polling semantics of spec §4.3.
func (w *Worker) process(ctx context.Context, t *task.Task) error {
	appID := t.AppID()
	appIDStr := strconv.FormatInt(int64(appID), 10)

	pollID := uuid.New().String()[:8]
	logger := w.logger.With("poll_id", pollID, "app_id", appID)

	var collected []reviews.Review
	now := time.Now()
	cutoff := now.Add(-w.pollingDepth)

	for page := 1; page <= itunes.MaxPages; page++ {
		p, err := w.upstream.GetReviews(ctx, appIDStr, page)
		if err != nil {
			return err
		}
		if len(p.Entries) == 0 {
			break
		}

		pageReviews := make([]reviews.Review, 0, len(p.Entries))
		for _, e := range p.Entries {
			r, err := toReview(appID, e)
			if err != nil {
				logger.Warn("skipping malformed review entry", "entry_id", e.ID, "error", err)
				continue
			}
			pageReviews = append(pageReviews, r)
		}
		collected = append(collected, pageReviews...)

		if len(pageReviews) > 0 && pageReviews[len(pageReviews)-1].Updated.Before(cutoff) {
			break
		}
	}

	logger.Info("poll complete", "reviews_collected", len(collected))

	if len(collected) > 0 {
		if err := w.store.CreateReviews(ctx, collected); err != nil {
			return err
		}
	}

	if _, ok, err := w.store.GetApp(ctx, appID); err != nil {
		return err
	} else if !ok {
		if err := w.store.CreateApp(ctx, reviews.App{ID: appID}); err != nil {
			return err
		}
	}

	return nil
}

// toReview maps one upstream entry to a domain Review, per spec §4.3's
// field list.
func toReview(appID reviews.AppID, e itunes.Entry) (reviews.Review, error) {
	score, err := strconv.Atoi(e.Rating)
	if err != nil {
		return reviews.Review{}, err
	}
	updated, err := time.Parse(time.RFC3339, e.Updated)
	if err != nil {
		return reviews.Review{}, err
	}
	return reviews.Review{
		ID:      reviews.NewReviewID(appID, e.ID),
		AppID:   appID,
		Title:   e.Title,
		Content: e.Content,
		Author:  e.Author,
		Score:   score,
		Updated: updated,
	}, nil
}
