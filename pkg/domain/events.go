package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventSessionStart EventType = "session_start"
	EventSessionEnd   EventType = "session_end"
	EventNodeEnter    EventType = "node_enter"
	EventNodeLeave    EventType = "node_leave"
)

// SessionEvent describes the creation or termination of a session.
type SessionEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Contact   string    `json:"contact"`
	FlowID    string    `json:"flow_id"`
	// Reason is set on session_end: "dead-end", "orphaned", "hop-limit".
	Reason string `json:"reason,omitempty"`
}

// NodeEvent represents entry into or exit from a node during traversal.
type NodeEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	FlowID    string    `json:"flow_id"`
	NodeID    string    `json:"node_id"`
	NodeKind  string    `json:"node_kind"`
	// Failed is set on node_leave when the node's effect reported a failure outcome.
	Failed bool `json:"failed,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
// All fields are optional; nil hooks are skipped.
type LifecycleHooks struct {
	OnSessionStart func(context.Context, *SessionEvent)
	OnSessionEnd   func(context.Context, *SessionEvent)
	OnNodeEnter    func(context.Context, *NodeEvent)
	OnNodeLeave    func(context.Context, *NodeEvent)
}
