package domain

import "time"

// FlowStatus is the lifecycle state of a flow definition.
type FlowStatus string

const (
	FlowActive   FlowStatus = "active"
	FlowInactive FlowStatus = "inactive"
	FlowDraft    FlowStatus = "draft"
)

// Source-handle labels that carry routing meaning for action nodes.
// Any other handle value is an author-defined label (e.g. a button option ID).
const (
	HandleSuccess = "source-success"
	HandleError   = "source-error"
)

// Trigger configures how inbound text selects a flow for a contact with no
// active session. Matching semantics are a flow configuration concern; the
// engine only consumes the boolean result.
type Trigger struct {
	// Kind is one of "exact", "contains", "regex" or "expression".
	Kind string `json:"kind" yaml:"kind"`
	// Value is the phrase, pattern or expr program matched against the text.
	Value string `json:"value" yaml:"value"`
	// CaseSensitive applies to "exact" and "contains" kinds.
	CaseSensitive bool `json:"case_sensitive,omitempty" yaml:"case_sensitive,omitempty"`
}

// Edge is a directed connection from one node's output to another node's input.
type Edge struct {
	Source string `json:"source" yaml:"source"`
	// SourceHandle disambiguates multiple outputs of one node: a button option
	// ID, HandleSuccess or HandleError. Empty means the default output.
	SourceHandle string `json:"source_handle,omitempty" yaml:"source_handle,omitempty"`
	Target       string `json:"target" yaml:"target"`
	// TargetHandle is reserved for the authoring UI and unused by the engine.
	TargetHandle string `json:"target_handle,omitempty" yaml:"target_handle,omitempty"`
}

// Flow is a named graph of nodes and edges defining an automated conversation.
// It is immutable from the engine's perspective: edits take effect only for
// sessions created after the edit.
type Flow struct {
	ID         string     `json:"id" yaml:"id"`
	UserID     string     `json:"user_id" yaml:"user_id"`
	CampaignID string     `json:"campaign_id,omitempty" yaml:"campaign_id,omitempty"`
	Name       string     `json:"name" yaml:"name"`
	Status     FlowStatus `json:"status" yaml:"status"`

	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`

	Trigger Trigger `json:"trigger" yaml:"trigger"`

	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// NodeByID returns the node with the given ID, or nil if absent.
func (f *Flow) NodeByID(id string) *Node {
	for i := range f.Nodes {
		if f.Nodes[i].ID == id {
			return &f.Nodes[i]
		}
	}
	return nil
}

// EntryNode returns the unique node with no incoming edge.
// A flow with zero or more than one such node is a configuration error.
func (f *Flow) EntryNode() (*Node, error) {
	incoming := make(map[string]bool, len(f.Edges))
	for _, e := range f.Edges {
		incoming[e.Target] = true
	}

	var entry *Node
	for i := range f.Nodes {
		if incoming[f.Nodes[i].ID] {
			continue
		}
		if entry != nil {
			return nil, ErrAmbiguousEntry
		}
		entry = &f.Nodes[i]
	}

	if entry == nil {
		return nil, ErrNoEntryNode
	}
	return entry, nil
}

// OutgoingEdges returns the edges originating at the given node, in
// definition order.
func (f *Flow) OutgoingEdges(nodeID string) []Edge {
	var out []Edge
	for _, e := range f.Edges {
		if e.Source == nodeID {
			out = append(out, e)
		}
	}
	return out
}
