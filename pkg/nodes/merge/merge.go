// Package merge implements the merge node, which gathers the outputs of all
// its predecessors into one record.
package merge

import (
	"context"

	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/node"
	"github.com/aretw0/spindle/pkg/schema"
)

// TypeName is the registered node type name.
const TypeName = "merge_node"

// Descriptor is the static metadata of the merge node type.
var Descriptor = domain.NodeTypeDescriptor{
	Name:        TypeName,
	DisplayName: "Merge",
	Category:    domain.CategoryLogic,
}.WithDefaults()

// Node merges its input fields into an ordered mapping of field -> value.
// A new output shape, typed by the runtime kind of each value, is bound on
// every call.
type Node struct {
	*node.Base
}

// New creates a merge node.
func New(name string, cfg domain.NodeConfig, opts ...node.Option) (*Node, error) {
	cfg.HasFixedOutput = false
	n := &Node{}
	base, err := node.NewBase(name, Descriptor, cfg, n, opts...)
	if err != nil {
		return nil, err
	}
	n.Base = base
	return n, nil
}

func (n *Node) Run(ctx context.Context, in schema.Record) (any, error) {
	keys := in.Keys()
	data := make(map[string]any, len(keys))
	for _, k := range keys {
		data[k], _ = in.Get(k)
	}

	shape := schema.InferShape(n.Name(), keys, data)
	n.BindOutputShape(shape)
	n.Logger().Debug("merge output shape bound", "fields", keys)
	return shape.Coerce(data)
}
