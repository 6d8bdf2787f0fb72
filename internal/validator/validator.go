// Package validator checks flow graphs for configuration mistakes before
// they reach a contact.
package validator

import (
	"fmt"
	"strings"

	"github.com/tendrilhq/tendril/pkg/domain"
)

// ValidateFlow checks a flow for structural problems: duplicate node IDs,
// edges referencing missing nodes, a missing or ambiguous entry node,
// button edges without a matching option and unreachable nodes. All findings
// are reported together in one error.
func ValidateFlow(flow *domain.Flow) error {
	var problems []string

	nodes := make(map[string]*domain.Node, len(flow.Nodes))
	for i := range flow.Nodes {
		n := &flow.Nodes[i]
		if n.ID == "" {
			problems = append(problems, "node with empty ID")
			continue
		}
		if _, dup := nodes[n.ID]; dup {
			problems = append(problems, fmt.Sprintf("duplicate node ID %q", n.ID))
			continue
		}
		nodes[n.ID] = n
	}

	for _, e := range flow.Edges {
		if _, ok := nodes[e.Source]; !ok {
			problems = append(problems, fmt.Sprintf("edge source %q is not a node", e.Source))
		}
		if _, ok := nodes[e.Target]; !ok {
			problems = append(problems, fmt.Sprintf("edge target %q is not a node", e.Target))
		}
	}

	entry, err := flow.EntryNode()
	if err != nil {
		problems = append(problems, err.Error())
	}

	problems = append(problems, checkButtonEdges(flow, nodes)...)

	if entry != nil {
		problems = append(problems, checkReachability(flow, entry.ID, nodes)...)
	}

	if len(problems) > 0 {
		return fmt.Errorf("flow %q: %s", flow.ID, strings.Join(problems, "; "))
	}
	return nil
}

// checkButtonEdges verifies that option-labeled edges leaving a button node
// correspond to configured options, so no reply can select a missing edge.
func checkButtonEdges(flow *domain.Flow, nodes map[string]*domain.Node) []string {
	var problems []string
	for id, n := range nodes {
		if n.Kind != domain.NodeButtonChoice {
			continue
		}

		options := map[string]bool{}
		if raw, ok := n.Config["options"].([]any); ok {
			for _, o := range raw {
				if m, ok := o.(map[string]any); ok {
					if optID, ok := m["id"].(string); ok {
						options[optID] = true
					}
				}
			}
		}

		for _, e := range flow.OutgoingEdges(id) {
			if e.SourceHandle == "" {
				continue
			}
			if !options[e.SourceHandle] {
				problems = append(problems,
					fmt.Sprintf("node %q: edge handle %q matches no button option", id, e.SourceHandle))
			}
		}
		for optID := range options {
			if _, ok := edgeTarget(flow, id, optID); !ok {
				problems = append(problems,
					fmt.Sprintf("node %q: option %q has no outgoing edge", id, optID))
			}
		}
	}
	return problems
}

// checkReachability crawls the graph from the entry node and reports nodes
// no conversation can ever reach.
func checkReachability(flow *domain.Flow, entryID string, nodes map[string]*domain.Node) []string {
	visited := map[string]bool{}
	queue := []string{entryID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true
		for _, e := range flow.OutgoingEdges(current) {
			queue = append(queue, e.Target)
		}
	}

	var problems []string
	for id := range nodes {
		if !visited[id] {
			problems = append(problems, fmt.Sprintf("node %q is unreachable", id))
		}
	}
	return problems
}

func edgeTarget(flow *domain.Flow, nodeID, handle string) (string, bool) {
	for _, e := range flow.OutgoingEdges(nodeID) {
		if e.SourceHandle == handle {
			return e.Target, true
		}
	}
	return "", false
}
