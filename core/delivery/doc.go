// Package delivery implements the event delivery engine: timed sends with
// exponential-backoff retry, per-user fan-out, thread-addressed delivery,
// critical event emission and process-wide delivery statistics.
//
// The engine absorbs all transport errors internally. Callers receive a
// boolean: true means at least one connection accepted the message, false
// means the message is now in the recovery backlog for redelivery after the
// user reconnects. Raw transport errors never propagate.
//
// Retry policy per connection: each attempt gets a hard send timeout
// (default 5s); timeouts and transient errors are retried up to the attempt
// cap (default 3) with exponential backoff (1s, then 2s). A disconnect is
// never retried: the connection is removed from the registry immediately.
//
// Usage:
//
//	engine, err := delivery.New(reg, store,
//	    delivery.WithLogger(logger),
//	)
//	if err != nil {
//	    return err
//	}
//
//	if !engine.SendToUser(ctx, "user-1", payload) {
//	    // payload is queued for recovery, nothing else to do
//	}
//
//	err = engine.EmitCriticalEvent(ctx, "user-1", event.AgentStarted, data)
package delivery
