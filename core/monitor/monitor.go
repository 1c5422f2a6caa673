package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/chatwire/realtime/core/logger"
	"github.com/chatwire/realtime/pkg/async"
)

// Monitor tracks named background tasks by handle and aggregates their
// liveness into a health report. The zero value is not usable; construct
// with New. A new monitor accepts tasks immediately.
type Monitor struct {
	mu    sync.Mutex
	tasks map[string]*task

	enabled     atomic.Bool
	stopTimeout time.Duration
	logger      *slog.Logger
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithLogger sets the logger for task lifecycle events.
func WithLogger(logger *slog.Logger) MonitorOption {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithStopTimeout bounds how long Stop waits for a cancelled task to exit.
func WithStopTimeout(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		if d > 0 {
			m.stopTimeout = d
		}
	}
}

// New creates an enabled monitor.
func New(opts ...MonitorOption) *Monitor {
	m := &Monitor{
		tasks:       make(map[string]*task),
		stopTimeout: 10 * time.Second,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	m.enabled.Store(true)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Enable re-opens the monitor for new tasks after a Shutdown.
func (m *Monitor) Enable() {
	m.enabled.Store(true)
	m.logger.Info("background monitoring enabled")
}

// Enabled reports whether the monitor accepts tasks.
func (m *Monitor) Enabled() bool {
	return m.enabled.Load()
}

// Start launches fn as a supervised task under the given name and returns
// the name. A duplicate name cancels and joins the previous task before the
// replacement starts. Panics inside fn are recovered and recorded as task
// failure.
func (m *Monitor) Start(name string, fn TaskFunc, opts ...TaskOption) (string, error) {
	if name == "" {
		return "", ErrEmptyTaskName
	}
	if fn == nil {
		return "", ErrNilTaskFunc
	}
	if !m.enabled.Load() {
		return "", ErrMonitoringDisabled
	}

	// Replace-by-name: the old task must be fully joined before the new one
	// starts, otherwise two instances could briefly run side by side.
	m.stopByName(name)

	ctx, cancel := context.WithCancel(context.Background())
	t := &task{
		name:      name,
		runID:     uuid.New(),
		cancel:    cancel,
		hb:        &Heartbeat{},
		startedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.hb.Beat()

	t.future = async.Go(ctx, func(ctx context.Context) (retErr error) {
		defer func() {
			if r := recover(); r != nil {
				retErr = fmt.Errorf("panic in background task: %v", r)
				m.logger.Error("background task panicked",
					logger.Task(name),
					slog.String("run_id", t.runID.String()),
					slog.Any("panic", r))
			}
		}()
		return fn(ctx, t.hb)
	})

	m.mu.Lock()
	m.tasks[name] = t
	m.mu.Unlock()

	m.logger.Info("background task started",
		logger.Task(name),
		slog.String("run_id", t.runID.String()))

	return name, nil
}

// Stop cancels the named task and waits for it to exit. Returns whether a
// task with that name was found.
func (m *Monitor) Stop(name string) bool {
	return m.stopByName(name)
}

func (m *Monitor) stopByName(name string) bool {
	m.mu.Lock()
	t, ok := m.tasks[name]
	if ok {
		delete(m.tasks, name)
	}
	m.mu.Unlock()

	if !ok {
		return false
	}

	t.cancel()
	if err := t.future.AwaitWithTimeout(m.stopTimeout); err != nil && !isExpectedExit(err) {
		m.logger.Warn("background task did not stop cleanly",
			logger.Task(name),
			logger.Error(err))
	}
	return true
}

// Status is a snapshot of the supervised task set.
type Status struct {
	MonitoringEnabled bool                 `json:"monitoring_enabled"`
	TotalTasks        int                  `json:"total_tasks"`
	Tasks             map[string]TaskState `json:"tasks"`
}

// Status reports each task's current state.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := Status{
		MonitoringEnabled: m.enabled.Load(),
		TotalTasks:        len(m.tasks),
		Tasks:             make(map[string]TaskState, len(m.tasks)),
	}
	for name, t := range m.tasks {
		status.Tasks[name] = t.state()
	}
	return status
}

// TaskHealth describes one task's contribution to the health report.
type TaskHealth struct {
	State         TaskState `json:"state"`
	Stale         bool      `json:"stale"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
	StartedAt     time.Time `json:"started_at"`
}

// OverallHealth is the aggregated liveness score.
type OverallHealth struct {
	Score  int    `json:"score"`
	Status string `json:"status"`
}

// HealthReport aggregates per-task liveness.
type HealthReport struct {
	MonitoringEnabled bool                  `json:"monitoring_enabled"`
	TaskHealth        map[string]TaskHealth `json:"task_health"`
	Overall           OverallHealth         `json:"overall_health"`
	Alerts            []string              `json:"alerts"`
}

// HealthStatus scores the task set: failed tasks and tasks that missed
// their heartbeat window lower the score and append an alert. With no tasks
// the monitor reports a perfect score.
func (m *Monitor) HealthStatus() HealthReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	report := HealthReport{
		MonitoringEnabled: m.enabled.Load(),
		TaskHealth:        make(map[string]TaskHealth, len(m.tasks)),
		Alerts:            []string{},
	}

	healthy := 0
	scored := 0
	for name, t := range m.tasks {
		state := t.state()
		stale := state == TaskRunning && t.stale(now)
		report.TaskHealth[name] = TaskHealth{
			State:         state,
			Stale:         stale,
			LastHeartbeat: t.hb.lastBeat(),
			StartedAt:     t.startedAt,
		}

		switch {
		case state == TaskFailed:
			scored++
			report.Alerts = append(report.Alerts,
				fmt.Sprintf("task %q failed: %v", name, t.future.Await()))
		case stale:
			scored++
			report.Alerts = append(report.Alerts,
				fmt.Sprintf("task %q missed its heartbeat window", name))
		case state == TaskRunning:
			scored++
			healthy++
		default:
			// Stopped and cancelled tasks do not affect the score.
		}
	}

	score := 100
	if scored > 0 {
		score = healthy * 100 / scored
	}
	report.Overall = OverallHealth{Score: score, Status: healthStatusLabel(score)}
	return report
}

// Shutdown cancels every task and waits for all of them to exit, bounded by
// ctx. After Shutdown the monitor rejects new tasks until Enable is called.
func (m *Monitor) Shutdown(ctx context.Context) error {
	m.enabled.Store(false)

	m.mu.Lock()
	tasks := make([]*task, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, t)
	}
	m.tasks = make(map[string]*task)
	m.mu.Unlock()

	for _, t := range tasks {
		t.cancel()
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		t := t
		g.Go(func() error {
			done := make(chan error, 1)
			go func() { done <- t.future.Await() }()
			select {
			case <-ctx.Done():
				return fmt.Errorf("task %q: %w", t.name, ctx.Err())
			case err := <-done:
				if err != nil && !isExpectedExit(err) {
					m.logger.Warn("background task exited with error during shutdown",
						logger.Task(t.name),
						logger.Error(err))
				}
				return nil
			}
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	m.logger.Info("background monitoring shut down",
		logger.Count("tasks_stopped", len(tasks)))
	return nil
}

func isExpectedExit(err error) bool {
	return err == nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
