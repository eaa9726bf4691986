// Package llm implements the single LLM call node. The user message is a
// text/template rendered against the node input.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/node"
	"github.com/aretw0/spindle/pkg/nodes/params"
	"github.com/aretw0/spindle/pkg/ports"
	"github.com/aretw0/spindle/pkg/schema"
)

const TypeName = "single_llm_call"

// DefaultModel is used when the model param is not set.
const DefaultModel = "gpt-4o-mini"

var ConfigShape = schema.NewShape("SingleLLMCallConfig",
	schema.Field{Name: "model", Type: schema.String()},
	schema.Field{Name: "system_message", Type: schema.String()},
	schema.Field{Name: "user_message", Type: schema.String()},
	schema.Field{Name: "temperature", Type: schema.Float()},
	schema.Field{Name: "max_tokens", Type: schema.Int()},
)

var Descriptor = domain.NodeTypeDescriptor{
	Name:        TypeName,
	DisplayName: "Single LLM Call",
	Category:    domain.CategoryLLM,
	ConfigShape: ConfigShape,
}.WithDefaults()

// Settings are the LLM call params.
type Settings struct {
	Model         string  `mapstructure:"model" validate:"required"`
	SystemMessage string  `mapstructure:"system_message"`
	UserMessage   string  `mapstructure:"user_message" validate:"required"`
	Temperature   float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens     int     `mapstructure:"max_tokens" validate:"gte=0"`
}

type Node struct {
	*node.Base
	llm ports.ChatCompleter
}

// New creates an LLM call node.
func New(name string, cfg domain.NodeConfig, llm ports.ChatCompleter, opts ...node.Option) (*Node, error) {
	settings, err := decodeSettings(cfg)
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", name, err)
	}
	if _, err := parseTemplate(name, settings.UserMessage); err != nil {
		return nil, fmt.Errorf("node %q: %w", name, err)
	}
	if len(cfg.OutputSchema) == 0 {
		cfg.OutputSchema = domain.DefaultNodeConfig().OutputSchema
	}

	n := &Node{llm: llm}
	base, err := node.NewBase(name, Descriptor, cfg, n, opts...)
	if err != nil {
		return nil, err
	}
	n.Base = base
	return n, nil
}

func (n *Node) Run(ctx context.Context, in schema.Record) (any, error) {
	cfg := n.Config()
	settings, err := decodeSettings(cfg)
	if err != nil {
		return nil, err
	}

	shape := n.OutputShape()
	if shape == nil {
		if shape, err = n.CreateOutputShape(cfg.OutputSchema); err != nil {
			return nil, err
		}
	}

	tmpl, err := parseTemplate(n.Name(), settings.UserMessage)
	if err != nil {
		return nil, err
	}
	var prompt strings.Builder
	if err := tmpl.Execute(&prompt, in.Dump()); err != nil {
		return nil, fmt.Errorf("render user message: %w", err)
	}

	field, single := singleStringField(shape)

	req := ports.ChatRequest{
		Model:       settings.Model,
		Temperature: settings.Temperature,
		MaxTokens:   settings.MaxTokens,
		JSON:        !single,
	}
	if settings.SystemMessage != "" {
		req.Messages = append(req.Messages, ports.ChatMessage{Role: "system", Content: settings.SystemMessage})
	}
	req.Messages = append(req.Messages, ports.ChatMessage{Role: "user", Content: prompt.String()})

	text, err := n.llm.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	if single {
		return map[string]any{field: text}, nil
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("decode model response as JSON: %w", err)
	}
	return out, nil
}

func singleStringField(shape *schema.Shape) (string, bool) {
	if shape.Len() != 1 {
		return "", false
	}
	f := shape.Fields()[0]
	if _, ok := f.Type.(*schema.StringType); !ok {
		return "", false
	}
	return f.Name, true
}

func parseTemplate(name, text string) (*template.Template, error) {
	return template.New(name).Option("missingkey=error").Parse(text)
}

func decodeSettings(cfg domain.NodeConfig) (Settings, error) {
	s := Settings{Model: DefaultModel, Temperature: 0.7}
	if err := params.Decode(cfg.Params, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}
