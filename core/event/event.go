package event

import "time"

// Type identifies an event on the wire.
type Type string

// Canonical agent/tool lifecycle event types. These exact strings are part
// of the client contract and must be emitted verbatim.
const (
	AgentStarted   Type = "agent_started"
	AgentThinking  Type = "agent_thinking"
	ToolExecuting  Type = "tool_executing"
	ToolCompleted  Type = "tool_completed"
	AgentCompleted Type = "agent_completed"
)

// Envelope is the wire shape of a delivered event. Data holds the JSON-safe
// payload produced by the serializer; Critical marks events that must be
// recovered after a reconnect rather than dropped.
type Envelope struct {
	Type      Type      `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Critical  bool      `json:"critical,omitempty"`
}

// AsMap dumps the envelope to a plain mapping. This is the capability the
// serializer uses to produce the wire form.
func (e Envelope) AsMap() map[string]any {
	m := map[string]any{
		"type":      string(e.Type),
		"timestamp": e.Timestamp,
	}
	if e.Data != nil {
		m["data"] = e.Data
	}
	if e.Critical {
		m["critical"] = true
	}
	return m
}

// New builds an envelope stamped with the current UTC time.
func New(eventType Type, data any) Envelope {
	return Envelope{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// NewCritical builds an envelope with the critical-delivery marker set.
func NewCritical(eventType Type, data any) Envelope {
	e := New(eventType, data)
	e.Critical = true
	return e
}
