// Package event defines the canonical agent/tool lifecycle event names and
// the envelope wrapping every payload delivered to a client.
//
// The five reserved names cover the agent lifecycle notifications clients
// subscribe to. Custom types are allowed anywhere an event type is accepted;
// only these five carry the critical-delivery guarantee by convention:
//
//	event.AgentStarted
//	event.AgentThinking
//	event.ToolExecuting
//	event.ToolCompleted
//	event.AgentCompleted
package event
