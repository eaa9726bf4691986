package domain

import "maps"

// DefaultOutputSchema is the output schema of a node that does not declare one.
var DefaultOutputSchema = map[string]string{"output": "string"}

// NodeConfig is the configuration owned by a single node instance.
type NodeConfig struct {
	// OutputSchema maps output field names to type tokens.
	OutputSchema map[string]string `json:"output_schema" yaml:"output_schema" mapstructure:"output_schema"`
	// OutputJSONSchema is the JSON Schema rendition kept for UI consumers.
	OutputJSONSchema string `json:"output_json_schema,omitempty" yaml:"output_json_schema,omitempty" mapstructure:"output_json_schema"`
	// HasFixedOutput binds the output shape from OutputSchema at construction
	// instead of at run time.
	HasFixedOutput bool `json:"has_fixed_output" yaml:"has_fixed_output" mapstructure:"has_fixed_output"`
	// Params holds the node-type specific tunables.
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty" mapstructure:"params"`
}

// DefaultNodeConfig returns a config with the default output schema.
func DefaultNodeConfig() NodeConfig {
	return NodeConfig{
		OutputSchema:     maps.Clone(DefaultOutputSchema),
		OutputJSONSchema: `{"type": "object", "properties": {"output": {"type": "string"}}}`,
	}
}

// Clone returns a deep enough copy for the instance to own.
func (c NodeConfig) Clone() NodeConfig {
	c.OutputSchema = maps.Clone(c.OutputSchema)
	c.Params = maps.Clone(c.Params)
	return c
}
