// Package input implements the input node, the entry point of a workflow.
// Its input and output shapes both follow the configured output schema and
// values pass through unchanged.
package input

import (
	"context"
	"fmt"

	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/node"
	"github.com/aretw0/spindle/pkg/schema"
)

const TypeName = "input_node"

var Descriptor = domain.NodeTypeDescriptor{
	Name:        TypeName,
	DisplayName: "Input",
	Category:    domain.CategoryPrimitives,
}.WithDefaults()

type Node struct {
	*node.Base
}

// New creates an input node. The config output schema is required.
func New(name string, cfg domain.NodeConfig, opts ...node.Option) (*Node, error) {
	if len(cfg.OutputSchema) == 0 {
		return nil, fmt.Errorf("node %q: input node requires an output schema", name)
	}
	cfg.HasFixedOutput = true

	n := &Node{}
	base, err := node.NewBase(name, Descriptor, cfg, n, opts...)
	if err != nil {
		return nil, err
	}
	n.Base = base

	in, err := base.Parser().ShapeFromTypeMap(name+"Input", cfg.OutputSchema)
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", name, err)
	}
	base.DeclareInputShape(in)
	return n, nil
}

func (n *Node) Run(_ context.Context, in schema.Record) (any, error) {
	return in.Dump(), nil
}
