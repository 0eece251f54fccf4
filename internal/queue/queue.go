// Package queue implements the deduplicating, dual-mode (FIFO/urgent)
// task queue described in spec §4.2: it accepts task submissions,
// coalesces repeated submissions for the same app, dispatches to
// whichever worker pops next, and tracks pending/in-progress/completed
// lifecycle buckets.
package queue

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	"reviewgateway/internal/reviews"
	"reviewgateway/internal/task"
)

// completedCap bounds the completed index so it doesn't grow unboundedly
// over a long-lived process, per spec §9 ("production implementations
// should cap it"). Only the most recently completed tasks are kept; the
// cap has no effect on correctness, only on how far back introspection
// can see.
const completedCap = 1000

// Queue is safe for concurrent use by any number of pushers and poppers.
type Queue struct {
	mu sync.Mutex

	dispatch *list.List // ordered list of *task.Task, the Q of spec §3
	filled   chan struct{}

	pending    map[string]*task.Task
	inProgress map[string]*task.Task
	completed  map[string]*task.Task
	completedQ []string // FIFO eviction order for the completed cap
}

// New creates an empty Queue.
func New() *Queue {
	return &Queue{
		dispatch:   list.New(),
		filled:     make(chan struct{}, 1),
		pending:    make(map[string]*task.Task),
		inProgress: make(map[string]*task.Task),
		completed:  make(map[string]*task.Task),
	}
}

// Push submits appID for polling. If a task for appID is already pending
// or in progress, that same task is returned and nothing is enqueued
// (spec §4.2's coalescing guarantee). urgent places a newly created task
// at the front of the dispatch order instead of the back. Push never
// blocks.
func (q *Queue) Push(appID reviews.AppID, urgent bool) *task.Task {
	id := "task_" + appID.String()

	q.mu.Lock()
	defer q.mu.Unlock()

	if t, ok := q.pending[id]; ok {
		return t
	}
	if t, ok := q.inProgress[id]; ok {
		return t
	}

	t := task.New(appID)
	q.pending[id] = t
	if urgent {
		q.dispatch.PushFront(t)
	} else {
		q.dispatch.PushBack(t)
	}
	q.signalFilled()
	return t
}

// Pop blocks until a task is available, then removes the head of the
// dispatch order and moves it from pending to in-progress. Safe to call
// from multiple goroutines concurrently; each call returns a distinct
// task. Returns ctx.Err() if ctx is done before a task becomes
// available.
func (q *Queue) Pop(ctx context.Context) (*task.Task, error) {
	for {
		q.mu.Lock()
		if front := q.dispatch.Front(); front != nil {
			t := q.dispatch.Remove(front).(*task.Task)
			delete(q.pending, t.ID())
			q.inProgress[t.ID()] = t
			if q.dispatch.Len() == 0 {
				q.drainFilled()
			}
			q.mu.Unlock()
			return t, nil
		}
		q.mu.Unlock()

		select {
		case <-q.filled:
			// Loop and race again: another popper may have already taken it.
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// MarkComplete moves t from in-progress to completed and fires its
// completion latch. t must have been returned by Pop; calling this with
// an unknown task is a programmer error and panics, per spec §4.2.
func (q *Queue) MarkComplete(t *task.Task) {
	q.mu.Lock()
	if _, ok := q.inProgress[t.ID()]; !ok {
		q.mu.Unlock()
		panic(fmt.Sprintf("queue: MarkComplete called for unknown task %s", t.ID()))
	}
	delete(q.inProgress, t.ID())
	q.completed[t.ID()] = t
	q.completedQ = append(q.completedQ, t.ID())
	if len(q.completedQ) > completedCap {
		evict := q.completedQ[0]
		q.completedQ = q.completedQ[1:]
		delete(q.completed, evict)
	}
	q.mu.Unlock()

	t.MarkComplete()
}

// WaitAll blocks until every task currently pending or in progress (at
// the moment of the call) has completed. Tasks submitted after the call
// need not be awaited, per spec §4.2.
func (q *Queue) WaitAll(ctx context.Context) error {
	q.mu.Lock()
	waiting := make([]*task.Task, 0, len(q.pending)+len(q.inProgress))
	for _, t := range q.pending {
		waiting = append(waiting, t)
	}
	for _, t := range q.inProgress {
		waiting = append(waiting, t)
	}
	q.mu.Unlock()

	for _, t := range waiting {
		if err := t.AwaitCompletion(ctx); err != nil {
			return err
		}
	}
	return nil
}

// signalFilled must be called with mu held.
func (q *Queue) signalFilled() {
	select {
	case q.filled <- struct{}{}:
	default:
	}
}

// drainFilled must be called with mu held, with the dispatch list empty.
func (q *Queue) drainFilled() {
	select {
	case <-q.filled:
	default:
	}
}
