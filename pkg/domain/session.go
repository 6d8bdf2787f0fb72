package domain

import "time"

// Session is the durable execution cursor for one (user, contact) pair.
// At most one session is active per pair at any time. It records which flow
// is running, the node the conversation is paused at (or last entered), and
// the accumulated variable state.
type Session struct {
	ID            string         `json:"id"`
	UserID        string         `json:"user_id"`
	Contact       string         `json:"contact"`
	FlowID        string         `json:"flow_id"`
	CurrentNodeID string         `json:"current_node_id"`
	Variables     map[string]any `json:"variables"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionPatch is a partial update applied atomically to a session row.
// Nil fields are left untouched.
type SessionPatch struct {
	CurrentNodeID *string
	Variables     map[string]any
}
