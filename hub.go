package realtime

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/chatwire/realtime/core/delivery"
	"github.com/chatwire/realtime/core/event"
	"github.com/chatwire/realtime/core/logger"
	"github.com/chatwire/realtime/core/monitor"
	"github.com/chatwire/realtime/core/recovery"
	"github.com/chatwire/realtime/core/registry"
	"github.com/chatwire/realtime/core/transport"
)

// Built-in supervised task names.
const (
	TaskRecoveryFlush = "recovery-flush"
	TaskStaleSweep    = "stale-connection-sweep"
)

// Hub is the single entry point for the event delivery core. It owns the
// connection registry, the delivery engine, the recovery backlog and the
// background task monitor, and keeps their interactions consistent:
// registering a connection atomically drains the user's recovery backlog, and
// failed deliveries flow back into it.
type Hub struct {
	registry *registry.Registry
	store    recovery.Store
	engine   *delivery.Engine
	monitor  *monitor.Monitor
	logger   *slog.Logger

	flushInterval time.Duration
	sweepInterval time.Duration
}

// New assembles a hub. By default it uses an in-memory recovery store and the
// production retry policy; use options to substitute a shared store or tune
// the policy.
func New(opts ...HubOption) (*Hub, error) {
	h := &Hub{
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		flushInterval: 30 * time.Second,
		sweepInterval: time.Minute,
	}

	var cfg hubConfig
	for _, opt := range opts {
		opt(h, &cfg)
	}

	if h.store == nil {
		h.store = recovery.NewMemoryStore(recovery.WithMemoryStoreLogger(h.logger))
	}
	h.registry = registry.New(registry.WithLogger(h.logger))
	h.monitor = monitor.New(monitor.WithLogger(h.logger))

	engineOpts := append([]delivery.Option{delivery.WithLogger(h.logger)}, cfg.deliveryOpts...)
	engine, err := delivery.New(h.registry, h.store, engineOpts...)
	if err != nil {
		return nil, err
	}
	h.engine = engine

	return h, nil
}

// NewFromEnv assembles a hub with the delivery retry policy read from the
// environment (DELIVERY_* and ENVIRONMENT_PRE_PRODUCTION variables). Explicit
// options take precedence over the environment.
func NewFromEnv(opts ...HubOption) (*Hub, error) {
	cfg, err := delivery.LoadConfig()
	if err != nil {
		return nil, err
	}
	return New(append([]HubOption{WithDeliveryConfig(cfg)}, opts...)...)
}

// AddConnection registers a transport session for the user and replays any
// backlog that accumulated while the user was offline. The backlog drain runs
// under the user's lock so a concurrent failed send either lands before the
// drain (and is replayed now) or after it (and waits for the next flush).
func (h *Hub) AddConnection(ctx context.Context, userID string, tr transport.Transport, opts ...registry.ConnectionOption) (*registry.Connection, error) {
	conn, err := registry.NewConnection(userID, tr, opts...)
	if err != nil {
		return nil, err
	}
	if err := h.registry.Add(conn); err != nil {
		return nil, err
	}

	var backlog []recovery.Entry
	h.registry.WithUserLock(userID, func() {
		var drainErr error
		backlog, drainErr = h.store.Drain(ctx, userID)
		if drainErr != nil {
			h.logger.Error("failed to drain recovery backlog on connect",
				logger.UserID(userID),
				logger.Error(drainErr))
		}
	})

	for _, entry := range backlog {
		// Redelivery targets the fresh connection; on failure the engine
		// re-queues the message, so nothing is lost.
		h.engine.SendToConnection(ctx, conn.ID(), entry.Message)
	}
	if len(backlog) > 0 {
		h.logger.Info("replayed recovery backlog",
			logger.UserID(userID),
			logger.ConnectionID(conn.ID()),
			logger.Count("entries", len(backlog)))
	}

	return conn, nil
}

// RemoveConnection unregisters a connection. Unknown IDs are a no-op.
func (h *Hub) RemoveConnection(connectionID string) {
	h.registry.Remove(connectionID)
}

// GetConnection looks up a connection by ID.
func (h *Hub) GetConnection(connectionID string) (*registry.Connection, bool) {
	return h.registry.Get(connectionID)
}

// UserConnections returns the IDs of the user's registered connections.
func (h *Hub) UserConnections(userID string) []string {
	return h.registry.UserConnections(userID)
}

// UpdateConnectionThread re-associates a connection with a new thread.
func (h *Hub) UpdateConnectionThread(connectionID, threadID string) bool {
	return h.registry.UpdateThread(connectionID, threadID)
}

// IsConnectionActive reports whether the user has at least one open
// connection.
func (h *Hub) IsConnectionActive(userID string) bool {
	return h.registry.IsActive(userID)
}

// ConnectionHealth returns a diagnostic snapshot of the user's connections.
func (h *Hub) ConnectionHealth(userID string) registry.HealthSnapshot {
	return h.registry.Health(userID)
}

// WaitForConnection blocks until the user has an open connection or the
// timeout elapses, polling every checkInterval. A non-positive interval
// defaults to 100ms.
func (h *Hub) WaitForConnection(ctx context.Context, userID string, timeout, checkInterval time.Duration) bool {
	return h.registry.WaitForConnection(ctx, userID, timeout, checkInterval)
}

// SendToConnection delivers a message to one connection with the retry
// policy. Returns true on success; failures land in the recovery backlog.
func (h *Hub) SendToConnection(ctx context.Context, connectionID string, message any) bool {
	return h.engine.SendToConnection(ctx, connectionID, message)
}

// SendToUser fans a message out to all of the user's connections. Returns
// true iff at least one connection received it.
func (h *Hub) SendToUser(ctx context.Context, userID string, message any) bool {
	return h.engine.SendToUser(ctx, userID, message)
}

// SendToThread delivers a message to every connection associated with the
// thread.
func (h *Hub) SendToThread(ctx context.Context, threadID string, message any) bool {
	return h.engine.SendToThread(ctx, threadID, message)
}

// EmitCriticalEvent builds a critical event envelope and delivers it to the
// user. The returned error covers input validation only.
func (h *Hub) EmitCriticalEvent(ctx context.Context, userID string, eventType event.Type, data any) error {
	return h.engine.EmitCriticalEvent(ctx, userID, eventType, data)
}

// PendingRecovery reports how many undelivered messages are queued for the
// user.
func (h *Hub) PendingRecovery(ctx context.Context, userID string) (int, error) {
	return h.store.Len(ctx, userID)
}

// Stats returns a snapshot of the delivery counters.
func (h *Hub) Stats() delivery.Stats {
	return h.engine.Stats()
}

// StartBackgroundTask registers a supervised task under the given name.
func (h *Hub) StartBackgroundTask(name string, fn monitor.TaskFunc, opts ...monitor.TaskOption) (string, error) {
	return h.monitor.Start(name, fn, opts...)
}

// StopBackgroundTask cancels and joins the named task. Returns whether the
// task was found.
func (h *Hub) StopBackgroundTask(name string) bool {
	return h.monitor.Stop(name)
}

// BackgroundTaskStatus reports the state of every supervised task.
func (h *Hub) BackgroundTaskStatus() monitor.Status {
	return h.monitor.Status()
}

// MonitoringHealth aggregates task liveness into a scored health report.
func (h *Hub) MonitoringHealth() monitor.HealthReport {
	return h.monitor.HealthStatus()
}

// EnableBackgroundMonitoring starts the hub's built-in maintenance tasks: a
// periodic recovery backlog flush for users that reconnected without a fresh
// registration, and a sweep that drops connections whose transport has
// closed.
func (h *Hub) EnableBackgroundMonitoring() error {
	h.monitor.Enable()

	if _, err := h.monitor.Start(TaskRecoveryFlush, h.recoveryFlush,
		monitor.WithExpectedInterval(h.flushInterval)); err != nil {
		return err
	}
	if _, err := h.monitor.Start(TaskStaleSweep, h.staleSweep,
		monitor.WithExpectedInterval(h.sweepInterval)); err != nil {
		return err
	}
	return nil
}

// ShutdownBackgroundMonitoring stops all supervised tasks, bounded by ctx.
func (h *Hub) ShutdownBackgroundMonitoring(ctx context.Context) error {
	return h.monitor.Shutdown(ctx)
}

// Run starts background monitoring and blocks until ctx is cancelled, then
// shuts the hub down. Suitable for errgroup-style supervision alongside an
// HTTP server.
func (h *Hub) Run(ctx context.Context) error {
	if err := h.EnableBackgroundMonitoring(); err != nil {
		return err
	}
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	return h.Close(shutdownCtx)
}

// Healthcheck probes the recovery store and fails when the aggregated task
// health is below the healthy threshold.
func (h *Hub) Healthcheck(ctx context.Context) error {
	if err := h.engine.Healthcheck(ctx); err != nil {
		return err
	}
	if report := h.monitor.HealthStatus(); report.Overall.Status == monitor.HealthUnhealthy {
		return ErrUnhealthy
	}
	return nil
}

// Close stops background tasks and waits for in-flight asynchronous work.
func (h *Hub) Close(ctx context.Context) error {
	if err := h.monitor.Shutdown(ctx); err != nil {
		return err
	}
	return h.engine.Close()
}

// recoveryFlush periodically replays queued messages for users that have an
// open connection. Messages that fail again simply return to the backlog.
func (h *Hub) recoveryFlush(ctx context.Context, hb *monitor.Heartbeat) error {
	ticker := time.NewTicker(h.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			hb.Beat()
			h.flushActiveUsers(ctx)
		}
	}
}

func (h *Hub) flushActiveUsers(ctx context.Context) {
	for _, userID := range h.registry.ActiveUsers() {
		var backlog []recovery.Entry
		h.registry.WithUserLock(userID, func() {
			var err error
			backlog, err = h.store.Drain(ctx, userID)
			if err != nil {
				h.logger.Error("recovery flush failed to drain backlog",
					logger.UserID(userID),
					logger.Error(err))
			}
		})

		for _, entry := range backlog {
			h.engine.SendToUser(ctx, userID, entry.Message)
		}
		if len(backlog) > 0 {
			h.logger.Info("flushed recovery backlog",
				logger.UserID(userID),
				logger.Count("entries", len(backlog)))
		}
	}
}

// staleSweep periodically unregisters connections whose transport reports
// closed, keeping the registry aligned with transport reality between sends.
func (h *Hub) staleSweep(ctx context.Context, hb *monitor.Heartbeat) error {
	ticker := time.NewTicker(h.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			hb.Beat()
			h.sweepClosed()
		}
	}
}

func (h *Hub) sweepClosed() {
	swept := 0
	for _, conn := range h.registry.All() {
		if !conn.IsOpen() {
			h.registry.Remove(conn.ID())
			swept++
		}
	}
	if swept > 0 {
		h.logger.Info("swept closed connections", logger.Count("connections", swept))
	}
}
