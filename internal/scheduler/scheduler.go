// Package scheduler provides the cancellable recurring-task primitive
// behind per-session quote delivery.
package scheduler

import (
	"sync"
	"time"
)

// Task is the handle for one recurring job. The zero value of *Task (nil)
// is a valid, already-cancelled handle.
type Task struct {
	done chan struct{}
	stop sync.Once
}

// Schedule runs onTick every period until the returned task is cancelled.
// The first tick fires one full period after Schedule returns; callers
// wanting an immediate emission perform it themselves before scheduling.
func Schedule(period time.Duration, onTick func()) *Task {
	t := &Task{done: make(chan struct{})}
	go t.run(period, onTick)
	return t
}

func (t *Task) run(period time.Duration, onTick func()) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			onTick()
		}
	}
}

// Cancel stops the task. Idempotent, and a no-op on a nil handle, so a
// session may cancel unconditionally before every restart.
func (t *Task) Cancel() {
	if t == nil {
		return
	}
	t.stop.Do(func() { close(t.done) })
}

// Done returns a channel closed when the task has been cancelled.
func (t *Task) Done() <-chan struct{} {
	if t == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return t.done
}
