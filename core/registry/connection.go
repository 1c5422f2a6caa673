package registry

import (
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/chatwire/realtime/core/transport"
)

// Connection represents one live transport session. A connection belongs to
// exactly one user for its lifetime; the thread association and metadata may
// change. The registry holds only a reference to the transport, it never
// takes ownership.
type Connection struct {
	id          string
	userID      string
	transport   transport.Transport
	connectedAt time.Time

	mu       sync.RWMutex
	threadID string
	metadata map[string]string

	messageCount atomic.Int64
	healthy      atomic.Bool
}

// ConnectionOption configures a Connection at creation time.
type ConnectionOption func(*Connection)

// WithConnectionID overrides the generated connection ID.
func WithConnectionID(id string) ConnectionOption {
	return func(c *Connection) {
		if id != "" {
			c.id = id
		}
	}
}

// WithThreadID associates the connection with a logical conversation.
func WithThreadID(threadID string) ConnectionOption {
	return func(c *Connection) {
		c.threadID = threadID
	}
}

// WithMetadata attaches open key/value metadata to the connection.
func WithMetadata(metadata map[string]string) ConnectionOption {
	return func(c *Connection) {
		c.metadata = maps.Clone(metadata)
	}
}

// NewConnection creates a connection record for an accepted transport
// session. The ID defaults to a random UUID.
func NewConnection(userID string, tr transport.Transport, opts ...ConnectionOption) (*Connection, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	if tr == nil {
		return nil, ErrNilTransport
	}

	c := &Connection{
		id:          uuid.NewString(),
		userID:      userID,
		transport:   tr,
		connectedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metadata == nil {
		c.metadata = make(map[string]string)
	}
	c.healthy.Store(true)

	return c, nil
}

// ID returns the globally unique connection identifier.
func (c *Connection) ID() string { return c.id }

// UserID returns the owning user.
func (c *Connection) UserID() string { return c.userID }

// Transport returns the underlying transport session.
func (c *Connection) Transport() transport.Transport { return c.transport }

// ConnectedAt returns when the session was accepted.
func (c *Connection) ConnectedAt() time.Time { return c.connectedAt }

// ThreadID returns the current thread association, if any.
func (c *Connection) ThreadID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.threadID
}

func (c *Connection) setThreadID(threadID string) {
	c.mu.Lock()
	c.threadID = threadID
	c.mu.Unlock()
}

// Metadata returns a copy of the connection metadata.
func (c *Connection) Metadata() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.metadata)
}

// SetMetadata stores one metadata key.
func (c *Connection) SetMetadata(key, value string) {
	c.mu.Lock()
	c.metadata[key] = value
	c.mu.Unlock()
}

// MessageCount returns the number of messages delivered on this connection.
func (c *Connection) MessageCount() int64 { return c.messageCount.Load() }

// CountMessage increments the delivered-message counter.
func (c *Connection) CountMessage() { c.messageCount.Add(1) }

// IsHealthy reports the health flag maintained by the delivery engine.
func (c *Connection) IsHealthy() bool { return c.healthy.Load() }

// SetHealthy updates the health flag.
func (c *Connection) SetHealthy(healthy bool) { c.healthy.Store(healthy) }

// IsOpen reports whether the underlying transport can still accept sends.
func (c *Connection) IsOpen() bool {
	return c.transport != nil && c.transport.IsOpen()
}
