// Package task defines the unit of work dispatched by the queue: an
// intent to poll reviews for one app, carrying a one-shot completion
// latch that request handlers can await.
package task

import (
	"context"
	"sync"

	"reviewgateway/internal/reviews"
)

// Task represents "poll reviews for app X". It lives only in memory and
// is destroyed once no waiter and no queue index holds it.
type Task struct {
	appID reviews.AppID

	once sync.Once
	done chan struct{}
}

// New creates a Task for appID. Callers should use Queue.Push rather than
// constructing a Task directly, so that the dedup invariant (spec §3: at
// most one Task per AppID across pending ∪ in-progress) is maintained.
func New(appID reviews.AppID) *Task {
	return &Task{
		appID: appID,
		done:  make(chan struct{}),
	}
}

// AppID returns the app this task polls reviews for.
func (t *Task) AppID() reviews.AppID {
	return t.appID
}

// ID returns the task's deterministic identifier, "task_<AppID>". Because
// it is derived solely from the AppID, two tasks for the same app always
// compare equal by ID — which is exactly the property the queue's dedup
// indices rely on.
func (t *Task) ID() string {
	return "task_" + t.appID.String()
}

// MarkComplete fires the completion latch. Idempotent: only the first
// call has an effect, matching spec §4.1.
func (t *Task) MarkComplete() {
	t.once.Do(func() { close(t.done) })
}

// IsComplete reports whether the latch has already fired, without
// blocking.
func (t *Task) IsComplete() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// AwaitCompletion blocks until the latch fires or ctx is done, whichever
// happens first. Returning ctx.Err() on the latter gives a waiter its own
// escape hatch during shutdown without requiring the queue or the task
// itself to know why it was abandoned (see SPEC_FULL.md's discussion of
// spec §9's cancellation open question).
func (t *Task) AwaitCompletion(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Task) String() string {
	return t.ID()
}
