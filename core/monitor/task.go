package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/chatwire/realtime/pkg/async"
)

// TaskFunc is the body of a supervised background task. It must return
// promptly once ctx is cancelled. Returning ctx.Err() after cancellation
// records the task as cancelled rather than failed.
type TaskFunc func(ctx context.Context, hb *Heartbeat) error

// Heartbeat lets a task report liveness. Tasks started with an expected
// interval are flagged as stale when they stop beating.
type Heartbeat struct {
	last atomic.Int64
}

// Beat records the current time as the task's last sign of life.
func (h *Heartbeat) Beat() {
	h.last.Store(time.Now().UnixNano())
}

func (h *Heartbeat) lastBeat() time.Time {
	return time.Unix(0, h.last.Load())
}

// TaskState describes a supervised task's lifecycle position.
type TaskState string

const (
	TaskRunning   TaskState = "running"
	TaskStopped   TaskState = "stopped"
	TaskCancelled TaskState = "cancelled"
	TaskFailed    TaskState = "failed"
)

// TaskOption configures one supervised task.
type TaskOption func(*task)

// WithExpectedInterval declares how often the task is expected to call
// Beat. A task silent for more than twice this interval is reported stale.
func WithExpectedInterval(d time.Duration) TaskOption {
	return func(t *task) {
		if d > 0 {
			t.expectedInterval = d
		}
	}
}

type task struct {
	name             string
	runID            uuid.UUID
	cancel           context.CancelFunc
	future           *async.Future
	hb               *Heartbeat
	startedAt        time.Time
	expectedInterval time.Duration
}

func (t *task) state() TaskState {
	if !t.future.IsComplete() {
		return TaskRunning
	}
	err := t.future.Await()
	switch {
	case err == nil:
		return TaskStopped
	case errors.Is(err, context.Canceled):
		return TaskCancelled
	default:
		return TaskFailed
	}
}

// stale reports whether a running task has missed its heartbeat window.
func (t *task) stale(now time.Time) bool {
	if t.expectedInterval <= 0 {
		return false
	}
	return now.Sub(t.hb.lastBeat()) > 2*t.expectedInterval
}
