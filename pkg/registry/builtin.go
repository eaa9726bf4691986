package registry

import (
	"fmt"

	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/node"
	"github.com/aretw0/spindle/pkg/nodes/input"
	"github.com/aretw0/spindle/pkg/nodes/llm"
	"github.com/aretw0/spindle/pkg/nodes/merge"
	"github.com/aretw0/spindle/pkg/nodes/retriever"
)

// Default returns a registry holding every built-in node type.
func Default(deps Deps) *Registry {
	r := NewRegistry(deps)

	r.Register(input.Descriptor, func(name string, cfg domain.NodeConfig, d Deps) (node.Node, error) {
		return build(input.New(name, cfg, d.Options...))
	})
	r.Register(merge.Descriptor, func(name string, cfg domain.NodeConfig, d Deps) (node.Node, error) {
		return build(merge.New(name, cfg, d.Options...))
	})
	r.Register(retriever.Descriptor, func(name string, cfg domain.NodeConfig, d Deps) (node.Node, error) {
		if d.Indices == nil || d.Searcher == nil {
			return nil, fmt.Errorf("node %q: %w: retriever needs an index registry and a vector searcher", name, domain.ErrDependency)
		}
		return build(retriever.New(name, cfg, d.Indices, d.Searcher, d.Options...))
	})
	r.Register(llm.Descriptor, func(name string, cfg domain.NodeConfig, d Deps) (node.Node, error) {
		if d.LLM == nil {
			return nil, fmt.Errorf("node %q: %w: llm call needs a chat completer", name, domain.ErrDependency)
		}
		return build(llm.New(name, cfg, d.LLM, d.Options...))
	})
	return r
}

// build avoids returning a typed nil inside the node.Node interface.
func build[T node.Node](n T, err error) (node.Node, error) {
	if err != nil {
		return nil, err
	}
	return n, nil
}
