package loam

// NodeMetadata is the frontmatter of a workflow node document.
// The tags match the keys of YAML frontmatter and JSON documents.
type NodeMetadata struct {
	ID    string `json:"id" yaml:"id" mapstructure:"id"`
	Type  string `json:"node_type" yaml:"node_type" mapstructure:"node_type"`
	Title string `json:"title" yaml:"title" mapstructure:"title"`

	// To lists the nodes consuming this node's output.
	To []string `json:"to" yaml:"to" mapstructure:"to"`

	// ContentKey names the param that receives the document body,
	// e.g. "user_message" for an LLM prompt written as markdown.
	ContentKey string `json:"content_key" yaml:"content_key" mapstructure:"content_key"`

	OutputSchema   map[string]string `json:"output_schema" yaml:"output_schema" mapstructure:"output_schema"`
	HasFixedOutput bool              `json:"has_fixed_output" yaml:"has_fixed_output" mapstructure:"has_fixed_output"`
	Params         map[string]any    `json:"params" yaml:"params" mapstructure:"params"`
}
