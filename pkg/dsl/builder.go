package dsl

import (
	"fmt"

	"github.com/aretw0/spindle/pkg/workflow"
)

// Builder manages the graph construction.
type Builder struct {
	id    string
	name  string
	order []string
	nodes map[string]*NodeBuilder
}

// New creates a new graph builder for the workflow id.
func New(id string) *Builder {
	return &Builder{
		id:    id,
		name:  id,
		nodes: make(map[string]*NodeBuilder),
	}
}

// Name sets the display name of the workflow.
func (b *Builder) Name(name string) *Builder {
	b.name = name
	return b
}

// Add creates a new node in the graph.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := newNodeBuilder(id)
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Build assembles the definition in insertion order and checks its structure.
// Node types are checked later, against the registry that runs it.
func (b *Builder) Build() (*workflow.Definition, error) {
	def := &workflow.Definition{ID: b.id, Name: b.name}
	for _, id := range b.order {
		nb := b.nodes[id]
		def.Nodes = append(def.Nodes, nb.Build())
		for _, target := range nb.targets {
			def.Links = append(def.Links, workflow.Link{Source: id, Target: target})
		}
	}

	if err := workflow.Validate(def, nil); err != nil {
		return nil, fmt.Errorf("failed to build workflow %s: %w", b.id, err)
	}
	return def, nil
}
