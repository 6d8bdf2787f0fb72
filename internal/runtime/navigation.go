package runtime

import "github.com/tendrilhq/tendril/pkg/domain"

// edgeForHandle returns the target of the first outgoing edge whose
// source-handle equals handle.
func edgeForHandle(flow *domain.Flow, nodeID, handle string) (string, bool) {
	for _, e := range flow.OutgoingEdges(nodeID) {
		if e.SourceHandle == handle {
			return e.Target, true
		}
	}
	return "", false
}

// defaultEdge returns the target of the first unlabeled outgoing edge.
func defaultEdge(flow *domain.Flow, nodeID string) (string, bool) {
	return edgeForHandle(flow, nodeID, "")
}

// successTarget resolves the success outcome of an action node: the
// source-success edge if present, otherwise the first unlabeled edge.
func successTarget(flow *domain.Flow, nodeID string) (string, bool) {
	if target, ok := edgeForHandle(flow, nodeID, domain.HandleSuccess); ok {
		return target, true
	}
	return defaultEdge(flow, nodeID)
}

// errorTarget resolves the failure outcome of an action node. Only an
// explicit source-error edge applies; without one the failure is a dead end.
func errorTarget(flow *domain.Flow, nodeID string) (string, bool) {
	return edgeForHandle(flow, nodeID, domain.HandleError)
}
