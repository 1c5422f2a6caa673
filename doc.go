// Package realtime is the event delivery core of a multi-tenant chat
// platform: it routes messages and status events from backend workers to
// users' live transport sessions with bounded retries, per-user failure
// isolation, and a recovery backlog for offline users.
//
// The Hub is the single entry point. It composes four components, each
// usable on its own from the core packages:
//
//   - core/registry tracks live connections with per-user, per-thread and
//     per-connection indexes, and hands out identity-stable per-user locks so
//     one user's failures never block another's deliveries.
//   - core/delivery applies the timeout/retry policy (bounded attempts with
//     exponential backoff), classifies failures, and keeps process-wide
//     delivery statistics.
//   - core/recovery is a bounded per-user FIFO of undelivered messages,
//     in-memory or Redis-backed, drained atomically when the user reconnects.
//   - core/monitor supervises named background tasks and aggregates their
//     liveness into a scored health report.
//
// Basic usage:
//
//	hub, err := realtime.New(
//		realtime.WithLogger(log),
//		realtime.WithStore(recovery.NewRedisStore(client)),
//	)
//	if err != nil {
//		return err
//	}
//
//	// Register an accepted WebSocket session.
//	conn, err := hub.AddConnection(ctx, userID,
//		transport.NewWebSocketTransport(ws),
//		registry.WithThreadID(threadID),
//	)
//
//	// Deliver from a backend worker. Failures are absorbed into the
//	// recovery backlog; the boolean reports immediate delivery.
//	hub.SendToUser(ctx, userID, event.New(event.ToolCompleted, payload))
//
//	// Replay happens automatically inside AddConnection when the user
//	// reconnects.
//
// Run integrates with errgroup-style supervision: it starts the built-in
// recovery-flush and stale-connection-sweep tasks and blocks until the
// context is cancelled.
package realtime
