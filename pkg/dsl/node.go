package dsl

import (
	"maps"

	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/nodes/input"
	"github.com/aretw0/spindle/pkg/nodes/llm"
	"github.com/aretw0/spindle/pkg/nodes/merge"
	"github.com/aretw0/spindle/pkg/nodes/retriever"
	"github.com/aretw0/spindle/pkg/workflow"
)

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    workflow.NodeDef
	targets []string
}

func newNodeBuilder(id string) *NodeBuilder {
	return &NodeBuilder{node: workflow.NodeDef{ID: id, Config: domain.DefaultNodeConfig()}}
}

// Type sets the registered node type.
func (n *NodeBuilder) Type(typeName string) *NodeBuilder {
	n.node.Type = typeName
	return n
}

// Title sets the display title.
func (n *NodeBuilder) Title(title string) *NodeBuilder {
	n.node.Title = title
	return n
}

// Param sets one node-specific tunable.
func (n *NodeBuilder) Param(key string, value any) *NodeBuilder {
	if n.node.Config.Params == nil {
		n.node.Config.Params = make(map[string]any)
	}
	n.node.Config.Params[key] = value
	return n
}

// Output replaces the output schema (field name -> type token).
func (n *NodeBuilder) Output(fields map[string]string) *NodeBuilder {
	n.node.Config.OutputSchema = maps.Clone(fields)
	n.node.Config.OutputJSONSchema = ""
	return n
}

// Fixed binds the output shape when the node is built instead of per call.
func (n *NodeBuilder) Fixed() *NodeBuilder {
	n.node.Config.HasFixedOutput = true
	return n
}

// Input makes the node a workflow entry point emitting fields.
func (n *NodeBuilder) Input(fields map[string]string) *NodeBuilder {
	return n.Type(input.TypeName).Output(fields)
}

// Merge makes the node gather every predecessor output.
func (n *NodeBuilder) Merge() *NodeBuilder {
	return n.Type(merge.TypeName)
}

// Retriever makes the node search a vector index.
func (n *NodeBuilder) Retriever(indexID string, topK int) *NodeBuilder {
	return n.Type(retriever.TypeName).
		Param("vector_index_id", indexID).
		Param("top_k", topK)
}

// LLM makes the node a single chat completion. prompt is a text/template
// rendered with the node input.
func (n *NodeBuilder) LLM(model, prompt string) *NodeBuilder {
	return n.Type(llm.TypeName).
		Param("model", model).
		Param("user_message", prompt)
}

// System sets the system message of an LLM node.
func (n *NodeBuilder) System(message string) *NodeBuilder {
	return n.Param("system_message", message)
}

// To links this node's output to the targets.
func (n *NodeBuilder) To(targets ...string) *NodeBuilder {
	n.targets = append(n.targets, targets...)
	return n
}

// Build returns the node definition.
func (n *NodeBuilder) Build() workflow.NodeDef {
	def := n.node
	def.Config = n.node.Config.Clone()
	return def
}
