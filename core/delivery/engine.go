package delivery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/chatwire/realtime/core/event"
	"github.com/chatwire/realtime/core/logger"
	"github.com/chatwire/realtime/core/recovery"
	"github.com/chatwire/realtime/core/registry"
	"github.com/chatwire/realtime/core/serialize"
	"github.com/chatwire/realtime/core/transport"
)

// Engine routes messages from backend workers to live connections, applying
// the timeout/retry policy and recording delivery statistics. All transport
// errors are absorbed; callers only see success or recovery-queued.
type Engine struct {
	registry   *registry.Registry
	store      recovery.Store
	serializer *serialize.Serializer
	logger     *slog.Logger
	cfg        Config

	counters counters

	// Tracks async critical-event retries so Close can join them.
	wg sync.WaitGroup
}

// New creates a delivery engine bound to a registry and a recovery store.
func New(reg *registry.Registry, store recovery.Store, opts ...Option) (*Engine, error) {
	if reg == nil {
		return nil, ErrNilRegistry
	}
	if store == nil {
		return nil, ErrNilStore
	}

	e := &Engine{
		registry:   reg,
		store:      store,
		serializer: serialize.New(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		cfg:        DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// sendOutcome summarizes one run of the per-attempt state machine.
type sendOutcome struct {
	delivered  bool
	attempts   int
	timeouts   int
	disconnect bool
	lastErr    error
}

// SendToConnection serializes the message and writes it to one connection
// with the full timeout/retry policy. On final failure the message is queued
// for recovery under the owning user. Returns true on success.
func (e *Engine) SendToConnection(ctx context.Context, connectionID string, message any) bool {
	conn, ok := e.registry.Get(connectionID)
	if !ok {
		e.logger.Debug("send to unknown connection",
			logger.ConnectionID(connectionID))
		return false
	}

	payload := e.serializer.JSONSafe(message)
	outcome := e.sendWithRetry(ctx, conn, payload)
	if outcome.delivered {
		return true
	}

	e.enqueueRecovery(ctx, conn.UserID(), payload, failureReason(outcome))
	return false
}

// SendToUser fans the message out to every connection of the user. With no
// connections the message goes straight to the recovery backlog. Returns
// true iff at least one connection received it; on total failure a single
// recovery entry is queued for the user.
func (e *Engine) SendToUser(ctx context.Context, userID string, message any) bool {
	if userID == "" {
		return false
	}

	payload := e.serializer.JSONSafe(message)
	ids := e.registry.UserConnections(userID)
	if len(ids) == 0 {
		e.enqueueRecovery(ctx, userID, payload, reasonNoActiveConnection)
		return false
	}

	e.counters.broadcastsSent.Add(1)

	delivered := false
	reason := reasonSendError
	for _, id := range ids {
		conn, ok := e.registry.Get(id)
		if !ok {
			continue
		}
		outcome := e.sendWithRetry(ctx, conn, payload)
		if outcome.delivered {
			delivered = true
			continue
		}
		reason = failureReason(outcome)
	}

	if !delivered {
		e.enqueueRecovery(ctx, userID, payload, reason)
	}
	return delivered
}

// SendToThread delivers the message to every connection currently associated
// with the thread. Users whose thread connections all failed get one
// recovery entry each. Returns true iff at least one connection received it.
func (e *Engine) SendToThread(ctx context.Context, threadID string, message any) bool {
	if threadID == "" {
		return false
	}

	ids := e.registry.ThreadConnections(threadID)
	if len(ids) == 0 {
		e.logger.Debug("send to thread with no connections",
			logger.ThreadID(threadID))
		return false
	}

	payload := e.serializer.JSONSafe(message)

	delivered := false
	deliveredUsers := make(map[string]struct{})
	failedUsers := make(map[string]string)
	for _, id := range ids {
		conn, ok := e.registry.Get(id)
		if !ok {
			continue
		}
		outcome := e.sendWithRetry(ctx, conn, payload)
		if outcome.delivered {
			delivered = true
			deliveredUsers[conn.UserID()] = struct{}{}
			delete(failedUsers, conn.UserID())
			continue
		}
		if _, ok := deliveredUsers[conn.UserID()]; !ok {
			failedUsers[conn.UserID()] = failureReason(outcome)
		}
	}

	for userID, reason := range failedUsers {
		e.enqueueRecovery(ctx, userID, payload, reason)
	}
	return delivered
}

// EmitCriticalEvent validates the input, stamps the event with a timestamp
// and the critical marker, and delivers it to the user. In pre-production a
// failed critical event gets exactly one extra asynchronous retry.
//
// The returned error covers validation only; delivery failure is best-effort
// (the event is in the recovery backlog).
func (e *Engine) EmitCriticalEvent(ctx context.Context, userID string, eventType event.Type, data any) error {
	if userID == "" {
		return fmt.Errorf("%w: user id is empty", ErrValidation)
	}
	if eventType == "" {
		return fmt.Errorf("%w: event type is empty", ErrValidation)
	}

	envelope := event.NewCritical(eventType, e.serializer.JSONSafe(data))
	if e.SendToUser(ctx, userID, envelope) {
		return nil
	}

	e.logger.Warn("critical event not delivered, queued for recovery",
		logger.UserID(userID),
		logger.Event(string(eventType)))

	if e.cfg.PreProduction {
		e.scheduleCriticalRetry(ctx, userID, envelope)
	}
	return nil
}

// scheduleCriticalRetry fires a single delayed redelivery attempt. The retry
// reuses the original envelope so the client sees the original timestamp.
func (e *Engine) scheduleCriticalRetry(ctx context.Context, userID string, envelope event.Envelope) {
	retryCtx := context.WithoutCancel(ctx)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		time.Sleep(e.cfg.CriticalRetryDelay)
		if e.SendToUser(retryCtx, userID, envelope) {
			e.logger.Info("critical event delivered on extra retry",
				logger.UserID(userID),
				logger.Event(string(envelope.Type)))
		}
	}()
}

// Stats returns a snapshot of the delivery counters.
func (e *Engine) Stats() Stats {
	return e.counters.snapshot()
}

// Healthcheck probes the recovery store. Suitable for readiness endpoints.
func (e *Engine) Healthcheck(ctx context.Context) error {
	if _, err := e.store.Len(ctx, "healthcheck-probe"); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	return nil
}

// Close waits for in-flight asynchronous critical retries to finish.
func (e *Engine) Close() error {
	e.wg.Wait()
	return nil
}

// sendWithRetry runs the per-attempt state machine for one connection:
// pending -> sent | retrying | failed, with retrying returning to pending
// after the backoff delay. Disconnects short-circuit the loop and remove the
// connection from the registry.
func (e *Engine) sendWithRetry(ctx context.Context, conn *registry.Connection, payload any) sendOutcome {
	var outcome sendOutcome
	state := statePending

	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		outcome.attempts = attempt

		attemptCtx, cancel := context.WithTimeout(ctx, e.cfg.SendTimeout)
		err := conn.Transport().Send(attemptCtx, payload)
		cancel()

		if err == nil {
			state = stateSent
			e.recordSuccess(conn, outcome)
			outcome.delivered = true
			return outcome
		}
		outcome.lastErr = err

		switch {
		case errors.Is(err, transport.ErrClosed):
			// Peer is gone: tear down immediately, never retry.
			state = stateFailed
			outcome.disconnect = true
			e.handleDisconnect(conn)
			return outcome
		case errors.Is(err, context.DeadlineExceeded):
			outcome.timeouts++
			e.counters.sendTimeouts.Add(1)
		}

		if attempt == e.cfg.MaxAttempts {
			state = stateFailed
			break
		}

		state = stateRetrying
		e.logger.Debug("send attempt failed, backing off",
			logger.ConnectionID(conn.ID()),
			slog.String("state", state.String()),
			logger.Attempt(attempt),
			logger.Error(err))

		if !e.backoff(ctx, attempt) {
			state = stateFailed
			break
		}
		state = statePending
	}

	conn.SetHealthy(false)
	e.counters.timeoutFailures.Add(1)
	e.logger.Warn("send failed after all attempts",
		logger.ConnectionID(conn.ID()),
		logger.UserID(conn.UserID()),
		slog.String("state", state.String()),
		logger.RetryCount(outcome.attempts),
		logger.Error(outcome.lastErr))

	return outcome
}

// backoff sleeps for BackoffBase << (attempt-1), returning false if the
// caller's context was cancelled first.
func (e *Engine) backoff(ctx context.Context, attempt int) bool {
	delay := e.cfg.BackoffBase << (attempt - 1)
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (e *Engine) recordSuccess(conn *registry.Connection, outcome sendOutcome) {
	failedAttempts := outcome.attempts - 1
	if failedAttempts > 0 {
		e.counters.timeoutRetries.Add(int64(failedAttempts))
	}
	e.counters.messagesSent.Add(1)
	conn.CountMessage()
	conn.SetHealthy(true)
}

// handleDisconnect removes the connection and counts a handled error. The
// caller enqueues the message for recovery so it survives the reconnect.
func (e *Engine) handleDisconnect(conn *registry.Connection) {
	e.counters.errorsHandled.Add(1)
	e.registry.Remove(conn.ID())
	e.logger.Info("connection disconnected during send",
		logger.ConnectionID(conn.ID()),
		logger.UserID(conn.UserID()))
}

func (e *Engine) enqueueRecovery(ctx context.Context, userID string, payload any, reason string) {
	entry := recovery.Entry{
		Message:    payload,
		Reason:     reason,
		EnqueuedAt: time.Now().UTC(),
	}
	if err := e.store.Enqueue(ctx, userID, entry); err != nil {
		e.logger.Error("failed to enqueue recovery entry",
			logger.UserID(userID),
			logger.Reason(reason),
			logger.Error(err))
	}
}

func failureReason(outcome sendOutcome) string {
	switch {
	case outcome.disconnect:
		return reasonDisconnect
	case outcome.timeouts > 0:
		return reasonSendTimeout
	default:
		return reasonSendError
	}
}
