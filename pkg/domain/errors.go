package domain

import "errors"

// ErrSessionNotFound is returned when no session exists for a (user, contact) pair or session ID.
var ErrSessionNotFound = errors.New("session not found")

// ErrFlowNotFound is returned when a flow ID cannot be resolved for a user.
var ErrFlowNotFound = errors.New("flow not found")

// ErrNoEntryNode is returned when a flow has no node without incoming edges.
var ErrNoEntryNode = errors.New("flow has no entry node")

// ErrAmbiguousEntry is returned when a flow has more than one node without incoming edges.
var ErrAmbiguousEntry = errors.New("flow has multiple entry nodes")

// ErrHopLimit is returned internally when a single inbound event traverses
// more action nodes than the configured cap, which indicates a cycle among
// action nodes in the flow definition.
var ErrHopLimit = errors.New("action hop limit exceeded")
