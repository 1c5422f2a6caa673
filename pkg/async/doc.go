// Package async provides a small future primitive for supervising
// long-running background work.
//
// Go starts a function on its own goroutine and returns a Future that can be
// joined, polled, or joined with a timeout:
//
//	future := async.Go(ctx, func(ctx context.Context) error {
//	    return flushLoop(ctx)
//	})
//
//	// Later, during shutdown:
//	cancel()
//	if err := future.AwaitWithTimeout(5 * time.Second); errors.Is(err, async.ErrAwaitTimeout) {
//	    log.Warn("task did not stop in time")
//	}
//
// JoinAll awaits a group of futures and returns the first error observed.
package async
