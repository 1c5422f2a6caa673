package registry

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/chatwire/realtime/core/logger"
)

// Registry is the process-wide connection table. It keeps the primary
// connection map and the derived per-user and per-thread indexes consistent
// under concurrent mutation.
//
// The internal RWMutex guards map memory only; logical per-user operations
// serialize through the per-user lock table, so users never contend with
// each other.
type Registry struct {
	mu       sync.RWMutex
	byID     map[string]*Connection
	byUser   map[string]map[string]struct{}
	byThread map[string]map[string]struct{}

	// Lazily created, identity-stable per-user mutexes.
	userLocks sync.Map

	logger *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger for registry lifecycle events.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates an empty registry.
func New(opts ...RegistryOption) *Registry {
	r := &Registry{
		byID:     make(map[string]*Connection),
		byUser:   make(map[string]map[string]struct{}),
		byThread: make(map[string]map[string]struct{}),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// UserLock returns the mutex dedicated to userID, creating it on first use.
// The same instance is returned for every lookup of the same user.
func (r *Registry) UserLock(userID string) *sync.Mutex {
	if lock, ok := r.userLocks.Load(userID); ok {
		return lock.(*sync.Mutex)
	}
	lock, _ := r.userLocks.LoadOrStore(userID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// WithUserLock runs fn while holding the user's lock. Collaborators use this
// to make multi-step per-user operations (such as draining a recovery
// backlog) atomic with respect to registry mutations for the same user.
func (r *Registry) WithUserLock(userID string, fn func()) {
	lock := r.UserLock(userID)
	lock.Lock()
	defer lock.Unlock()
	fn()
}

// Add inserts a connection into the registry and the user index, under the
// owning user's lock. An ID collision is resolved last-write-wins without
// corrupting the indexes.
func (r *Registry) Add(conn *Connection) error {
	if conn == nil {
		return ErrNilConnection
	}
	if conn.UserID() == "" {
		return ErrEmptyUserID
	}

	r.WithUserLock(conn.UserID(), func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		if prev, ok := r.byID[conn.ID()]; ok {
			r.dropIndexesLocked(prev)
		}

		r.byID[conn.ID()] = conn
		r.addIndexesLocked(conn)
	})

	r.logger.Debug("connection registered",
		logger.ConnectionID(conn.ID()),
		logger.UserID(conn.UserID()),
		logger.ThreadID(conn.ThreadID()))

	return nil
}

// Remove deletes a connection from the registry and all indexes, under the
// owning user's lock. Removing an unknown ID is a no-op.
func (r *Registry) Remove(connectionID string) {
	conn, ok := r.Get(connectionID)
	if !ok {
		return
	}

	r.WithUserLock(conn.UserID(), func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		// Re-check under the write lock: a concurrent Remove may have won.
		current, ok := r.byID[connectionID]
		if !ok || current != conn {
			return
		}

		delete(r.byID, connectionID)
		r.dropIndexesLocked(conn)
	})

	r.logger.Debug("connection removed",
		logger.ConnectionID(connectionID),
		logger.UserID(conn.UserID()))
}

// Get looks up a connection by ID.
func (r *Registry) Get(connectionID string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.byID[connectionID]
	return conn, ok
}

// UserConnections returns the IDs of all connections owned by userID,
// possibly empty.
func (r *Registry) UserConnections(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.byUser[userID]))
	for id := range r.byUser[userID] {
		ids = append(ids, id)
	}
	return ids
}

// ThreadConnections returns the IDs of all connections currently associated
// with threadID.
func (r *Registry) ThreadConnections(threadID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.byThread[threadID]))
	for id := range r.byThread[threadID] {
		ids = append(ids, id)
	}
	return ids
}

// IsActive reports whether the user has at least one connection whose
// transport is still open.
func (r *Registry) IsActive(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id := range r.byUser[userID] {
		if conn, ok := r.byID[id]; ok && conn.IsOpen() {
			return true
		}
	}
	return false
}

// ConnectionInfo is a read-only diagnostic view of one connection.
type ConnectionInfo struct {
	ID           string    `json:"id"`
	ThreadID     string    `json:"thread_id,omitempty"`
	ConnectedAt  time.Time `json:"connected_at"`
	MessageCount int64     `json:"message_count"`
	Healthy      bool      `json:"healthy"`
	Open         bool      `json:"open"`
}

// HealthSnapshot summarizes a user's connections for diagnostics.
type HealthSnapshot struct {
	Total       int              `json:"total"`
	Active      int              `json:"active"`
	Connections []ConnectionInfo `json:"connections"`
}

// Health returns a diagnostic snapshot of the user's connections. It never
// mutates registry state.
func (r *Registry) Health(userID string) HealthSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := HealthSnapshot{
		Connections: make([]ConnectionInfo, 0, len(r.byUser[userID])),
	}
	for id := range r.byUser[userID] {
		conn, ok := r.byID[id]
		if !ok {
			continue
		}
		open := conn.IsOpen()
		snapshot.Total++
		if open {
			snapshot.Active++
		}
		snapshot.Connections = append(snapshot.Connections, ConnectionInfo{
			ID:           conn.ID(),
			ThreadID:     conn.ThreadID(),
			ConnectedAt:  conn.ConnectedAt(),
			MessageCount: conn.MessageCount(),
			Healthy:      conn.IsHealthy(),
			Open:         open,
		})
	}
	return snapshot
}

// Len returns the total number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// All returns every registered connection. Used by background sweeps.
func (r *Registry) All() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*Connection, 0, len(r.byID))
	for _, conn := range r.byID {
		conns = append(conns, conn)
	}
	return conns
}

// ActiveUsers returns the IDs of users that currently have at least one open
// connection.
func (r *Registry) ActiveUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.byUser))
	for userID, ids := range r.byUser {
		for id := range ids {
			if conn, ok := r.byID[id]; ok && conn.IsOpen() {
				users = append(users, userID)
				break
			}
		}
	}
	return users
}

// UpdateThread re-associates a connection with a new thread. Returns false
// if the connection is unknown.
func (r *Registry) UpdateThread(connectionID, threadID string) bool {
	conn, ok := r.Get(connectionID)
	if !ok {
		return false
	}

	updated := false
	r.WithUserLock(conn.UserID(), func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		current, ok := r.byID[connectionID]
		if !ok || current != conn {
			return
		}

		r.dropThreadIndexLocked(conn)
		conn.setThreadID(threadID)
		r.addThreadIndexLocked(conn)
		updated = true
	})

	return updated
}

// WaitForConnection polls until the user has an open connection or the
// timeout elapses. It returns true the moment a connection appears. The
// context cancels the wait early.
func (r *Registry) WaitForConnection(ctx context.Context, userID string, timeout, checkInterval time.Duration) bool {
	if r.IsActive(userID) {
		return true
	}
	if checkInterval <= 0 {
		checkInterval = 100 * time.Millisecond
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return false
		case <-ticker.C:
			if r.IsActive(userID) {
				return true
			}
		}
	}
}

func (r *Registry) addIndexesLocked(conn *Connection) {
	userSet, ok := r.byUser[conn.UserID()]
	if !ok {
		userSet = make(map[string]struct{})
		r.byUser[conn.UserID()] = userSet
	}
	userSet[conn.ID()] = struct{}{}

	r.addThreadIndexLocked(conn)
}

func (r *Registry) addThreadIndexLocked(conn *Connection) {
	threadID := conn.ThreadID()
	if threadID == "" {
		return
	}
	threadSet, ok := r.byThread[threadID]
	if !ok {
		threadSet = make(map[string]struct{})
		r.byThread[threadID] = threadSet
	}
	threadSet[conn.ID()] = struct{}{}
}

func (r *Registry) dropIndexesLocked(conn *Connection) {
	if userSet, ok := r.byUser[conn.UserID()]; ok {
		delete(userSet, conn.ID())
		if len(userSet) == 0 {
			delete(r.byUser, conn.UserID())
		}
	}
	r.dropThreadIndexLocked(conn)
}

func (r *Registry) dropThreadIndexLocked(conn *Connection) {
	threadID := conn.ThreadID()
	if threadID == "" {
		return
	}
	if threadSet, ok := r.byThread[threadID]; ok {
		delete(threadSet, conn.ID())
		if len(threadSet) == 0 {
			delete(r.byThread, threadID)
		}
	}
}
