// Package registry owns the process-wide mapping from connection IDs to live
// connections and the derived per-user and per-thread indexes.
//
// Every mutating operation for a user serializes through that user's
// dedicated lock; operations for different users proceed fully concurrently.
// The lock table is identity-stable: repeated lookups of the same user
// return the same mutex instance, and no two users ever share one.
//
// Usage:
//
//	reg := registry.New()
//
//	conn, err := registry.NewConnection("user-1", tr)
//	if err != nil {
//	    return err
//	}
//	if err := reg.Add(conn); err != nil {
//	    return err
//	}
//	defer reg.Remove(conn.ID())
//
// WaitForConnection blocks a caller until the user has at least one open
// connection or the timeout elapses:
//
//	if reg.WaitForConnection(ctx, "user-1", 5*time.Second, 100*time.Millisecond) {
//	    // deliver
//	}
package registry
