package sync

import (
	"context"
	"time"
)

// Task runs a function on a fixed interval until its context is
// cancelled. It also accepts out-of-cycle triggers.
type Task struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context)
	trigger  chan struct{}
}

// NewTask creates a Task that calls fn every interval.
func NewTask(name string, interval time.Duration, fn func(ctx context.Context)) *Task {
	return &Task{
		name:     name,
		interval: interval,
		fn:       fn,
		trigger:  make(chan struct{}, 1),
	}
}

// Name returns the task name.
func (t *Task) Name() string { return t.name }

// Run calls fn once immediately and then on every tick or trigger until
// ctx is done. A run in progress always completes.
func (t *Task) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.fn(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.fn(ctx)
		case <-t.trigger:
			t.fn(ctx)
		}
	}
}

// Trigger requests an immediate run. It never blocks; triggers that
// arrive while one is already pending are coalesced.
func (t *Task) Trigger() {
	select {
	case t.trigger <- struct{}{}:
	default:
	}
}
