package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/spindle/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Definition is a workflow graph: configured nodes and the links between them.
type Definition struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Nodes       []NodeDef `json:"nodes" yaml:"nodes"`
	Links       []Link    `json:"links" yaml:"links"`
}

// NodeDef is one graph node. ID is the stable graph-assigned identifier.
type NodeDef struct {
	ID     string            `json:"id" yaml:"id"`
	Type   string            `json:"node_type" yaml:"node_type"`
	Title  string            `json:"title,omitempty" yaml:"title,omitempty"`
	Config domain.NodeConfig `json:"config" yaml:"config"`
}

// Link is a directed edge: Target consumes the output of Source.
type Link struct {
	Source string `json:"source_id" yaml:"source_id"`
	Target string `json:"target_id" yaml:"target_id"`
}

// Load reads a definition from a YAML (.yaml, .yml) or JSON file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

// ParseYAML decodes a YAML definition.
func ParseYAML(data []byte) (*Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("parse workflow yaml: %w", err)
	}
	return &def, nil
}

// ParseJSON decodes a JSON definition.
func ParseJSON(data []byte) (*Definition, error) {
	var def Definition
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("parse workflow json: %w", err)
	}
	return &def, nil
}

// Node looks up a node definition by id.
func (d *Definition) Node(id string) (NodeDef, bool) {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeDef{}, false
}

// Predecessors returns the sorted ids of the nodes linked into id.
func (d *Definition) Predecessors(id string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, l := range d.Links {
		if l.Target == id && !seen[l.Source] {
			seen[l.Source] = true
			out = append(out, l.Source)
		}
	}
	sort.Strings(out)
	return out
}

// Sinks returns the sorted ids of nodes without successors.
func (d *Definition) Sinks() []string {
	hasSucc := make(map[string]bool, len(d.Nodes))
	for _, l := range d.Links {
		hasSucc[l.Source] = true
	}
	var out []string
	for _, n := range d.Nodes {
		if !hasSucc[n.ID] {
			out = append(out, n.ID)
		}
	}
	sort.Strings(out)
	return out
}
