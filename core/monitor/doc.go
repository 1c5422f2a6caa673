// Package monitor supervises named long-running background tasks: the
// periodic delivery-queue flush, stale-connection detection, and anything
// else the application registers.
//
// Each task runs under its own cancellable context and is tracked by name.
// Starting a task under a name that is already taken cancels and joins the
// previous task before the replacement starts. The monitor aggregates
// per-task liveness into a single health score with alerts, and Shutdown
// cancels and joins everything for a clean process exit.
//
// Usage:
//
//	m := monitor.New(monitor.WithLogger(logger))
//
//	m.Start("recovery-flush", func(ctx context.Context, hb *monitor.Heartbeat) error {
//	    ticker := time.NewTicker(10 * time.Second)
//	    defer ticker.Stop()
//	    for {
//	        select {
//	        case <-ctx.Done():
//	            return ctx.Err()
//	        case <-ticker.C:
//	            hb.Beat()
//	            flush(ctx)
//	        }
//	    }
//	}, monitor.WithExpectedInterval(10*time.Second))
//
//	defer m.Shutdown(context.Background())
package monitor
