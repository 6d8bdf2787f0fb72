package memory

import (
	"fmt"
	"os"

	"github.com/tendrilhq/tendril/pkg/domain"
	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk YAML shape for a flow catalog.
type catalogFile struct {
	Version int            `yaml:"version"`
	Flows   []*catalogFlow `yaml:"flows"`
}

type catalogFlow struct {
	ID      string `yaml:"id"`
	UserID  string `yaml:"user_id"`
	Name    string `yaml:"name"`
	Status  string `yaml:"status"`
	Trigger struct {
		Kind          string `yaml:"kind"`
		Value         string `yaml:"value"`
		CaseSensitive bool   `yaml:"case_sensitive"`
	} `yaml:"trigger"`
	Nodes []struct {
		ID     string         `yaml:"id"`
		Kind   string         `yaml:"kind"`
		Config map[string]any `yaml:"config"`
	} `yaml:"nodes"`
	Edges []struct {
		Source       string `yaml:"source"`
		SourceHandle string `yaml:"source_handle"`
		Target       string `yaml:"target"`
	} `yaml:"edges"`
}

// LoadCatalog reads a YAML flow catalog into a ready-to-use flow source.
func LoadCatalog(path string) (*Flows, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file catalogFile
	if err := yaml.Unmarshal(b, &file); err != nil {
		return nil, fmt.Errorf("failed to parse flow catalog: %w", err)
	}
	if file.Version != 1 {
		return nil, fmt.Errorf("unsupported flow catalog version: %d", file.Version)
	}

	flows := NewFlows()
	for i, cf := range file.Flows {
		if cf.ID == "" || cf.UserID == "" {
			return nil, fmt.Errorf("flow #%d: id and user_id are required", i)
		}
		flows.Add(toDomain(cf))
	}
	return flows, nil
}

func toDomain(cf *catalogFlow) *domain.Flow {
	flow := &domain.Flow{
		ID:     cf.ID,
		UserID: cf.UserID,
		Name:   cf.Name,
		Status: domain.FlowStatus(cf.Status),
		Trigger: domain.Trigger{
			Kind:          cf.Trigger.Kind,
			Value:         cf.Trigger.Value,
			CaseSensitive: cf.Trigger.CaseSensitive,
		},
	}
	if flow.Status == "" {
		flow.Status = domain.FlowActive
	}
	for _, n := range cf.Nodes {
		flow.Nodes = append(flow.Nodes, domain.Node{
			ID:     n.ID,
			Kind:   n.Kind,
			Config: n.Config,
		})
	}
	for _, e := range cf.Edges {
		flow.Edges = append(flow.Edges, domain.Edge{
			Source:       e.Source,
			SourceHandle: e.SourceHandle,
			Target:       e.Target,
		})
	}
	return flow
}
