// ABOUTME: YAML export of a parsed flow for tooling that does not speak the markup.
// ABOUTME: Emits adapter, entry and exit bookkeeping, nodes with params, and resolved edges.
package render

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/2389-research/pipeflow/flow"
)

type yamlFlow struct {
	Adapter           string     `yaml:"adapter,omitempty"`
	FirstPipe         string     `yaml:"firstPipe,omitempty"`
	ImplicitFirstPipe bool       `yaml:"implicitFirstPipe,omitempty"`
	ImplicitExit      bool       `yaml:"implicitExit,omitempty"`
	LastPipe          string     `yaml:"lastPipe,omitempty"`
	Nodes             []yamlNode `yaml:"nodes"`
	Edges             []yamlEdge `yaml:"edges"`
}

type yamlNode struct {
	UID      string            `yaml:"uid"`
	Name     string            `yaml:"name,omitempty"`
	Type     string            `yaml:"type"`
	Role     string            `yaml:"role"`
	Inactive bool              `yaml:"inactive,omitempty"`
	Position *flow.Position    `yaml:"position,omitempty"`
	Params   map[string]string `yaml:"params,omitempty"`
}

type yamlEdge struct {
	Source   string `yaml:"source"`
	Target   string `yaml:"target"`
	Label    string `yaml:"label,omitempty"`
	Hint     string `yaml:"hint,omitempty"`
	Implicit bool   `yaml:"implicit,omitempty"`
}

// ExportYAML serializes the structure and edges of r.
func ExportYAML(r *flow.Result) ([]byte, error) {
	if r == nil || r.Structure == nil {
		return nil, fmt.Errorf("cannot export nil result")
	}
	s := r.Structure

	out := yamlFlow{
		Adapter:           r.Adapter,
		FirstPipe:         s.FirstPipe,
		ImplicitFirstPipe: s.ImplicitFirstPipe,
		ImplicitExit:      s.ImplicitExit,
		LastPipe:          s.LastPipe,
		Nodes:             make([]yamlNode, 0, len(s.Nodes)),
		Edges:             make([]yamlEdge, 0, len(r.Edges)),
	}
	for _, n := range s.Nodes {
		node := yamlNode{
			UID:      n.UID,
			Name:     n.Name,
			Type:     n.Type,
			Role:     string(n.Role),
			Inactive: !n.Active(),
		}
		if n.HasPosition() {
			pos := n.Position
			node.Position = &pos
		}
		if len(n.Params) > 0 {
			node.Params = make(map[string]string, len(n.Params))
			for _, p := range n.Params {
				node.Params[p.Name] = p.Value
			}
		}
		out.Nodes = append(out.Nodes, node)
	}
	for _, e := range r.Edges {
		out.Edges = append(out.Edges, yamlEdge{
			Source:   e.Source,
			Target:   e.Target,
			Label:    e.Label,
			Hint:     string(e.Hint),
			Implicit: e.Implicit,
		})
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal flow: %w", err)
	}
	return data, nil
}
