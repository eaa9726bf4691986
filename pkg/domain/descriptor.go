package domain

import "github.com/aretw0/spindle/pkg/schema"

// Node categories used by the built-in node types.
const (
	CategoryPrimitives = "primitives"
	CategoryLogic      = "logic"
	CategoryLLM        = "llm"
)

// NodeTypeDescriptor is the static metadata of a node type.
// There is one descriptor per node type and it does not change after registration.
type NodeTypeDescriptor struct {
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Category    string    `json:"category,omitempty"`
	Logo        string    `json:"logo,omitempty"`
	VisualTag   VisualTag `json:"visual_tag"`

	// ConfigShape describes the node-specific tunables found in NodeConfig.Params.
	ConfigShape *schema.Shape `json:"config_shape,omitempty"`
	// InputShape is the declared input shape. Nil means the input is open and
	// its shape is inferred from the first value seen.
	InputShape *schema.Shape `json:"input_shape,omitempty"`
	// OutputShape is the output template bound when the config does not fix one.
	OutputShape *schema.Shape `json:"output_shape,omitempty"`
}

// WithDefaults fills DisplayName and VisualTag from Name when unset.
func (d NodeTypeDescriptor) WithDefaults() NodeTypeDescriptor {
	if d.DisplayName == "" {
		d.DisplayName = d.Name
	}
	if d.VisualTag == (VisualTag{}) {
		d.VisualTag = DefaultVisualTag(d.Name)
	}
	return d
}
