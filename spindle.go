package spindle

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	loamAdapter "github.com/aretw0/spindle/pkg/adapters/loam"
	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/node"
	"github.com/aretw0/spindle/pkg/observability"
	"github.com/aretw0/spindle/pkg/ports"
	"github.com/aretw0/spindle/pkg/registry"
	"github.com/aretw0/spindle/pkg/schema"
	"github.com/aretw0/spindle/pkg/workflow"
)

// Version is the release version, set at build time with -ldflags.
var Version = "dev"

// Engine is the high-level entry point for the Spindle library.
// It wires the built-in node types to their collaborators and runs workflows.
type Engine struct {
	registry *registry.Registry
	executor *workflow.Executor
	deps     registry.Deps
	execOpts []workflow.Option
	metrics  *observability.Metrics
	logger   *slog.Logger
	strict   bool
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine and its nodes.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.execOpts = append(e.execOpts, workflow.WithLifecycleHooks(hooks))
	}
}

// WithRunStore persists runs and tasks somewhere other than memory.
func WithRunStore(s ports.RunStore) Option {
	return func(e *Engine) {
		e.execOpts = append(e.execOpts, workflow.WithRunStore(s))
	}
}

// WithLocker guards runs with a distributed lock.
func WithLocker(l ports.DistributedLocker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.execOpts = append(e.execOpts, workflow.WithLocker(l, ttl))
	}
}

// WithMetrics records run and node metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithConcurrency caps parallel node invocations within a layer.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		e.execOpts = append(e.execOpts, workflow.WithConcurrency(n))
	}
}

// WithRetrieval provides the vector index registry and searcher used by retriever nodes.
func WithRetrieval(indices ports.IndexRegistry, searcher ports.VectorSearcher) Option {
	return func(e *Engine) {
		e.deps.Indices = indices
		e.deps.Searcher = searcher
	}
}

// WithChatCompleter provides the model client used by LLM nodes.
func WithChatCompleter(c ports.ChatCompleter) Option {
	return func(e *Engine) {
		e.deps.LLM = c
	}
}

// WithStrictTypes makes output schemas reject unknown type tokens.
func WithStrictTypes(strict bool) Option {
	return func(e *Engine) {
		e.strict = strict
	}
}

// New creates an engine with the built-in node types registered.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger != nil {
		e.deps.Options = append(e.deps.Options, node.WithLogger(e.logger))
		e.execOpts = append(e.execOpts, workflow.WithLogger(e.logger))
	}
	if e.strict {
		e.deps.Options = append(e.deps.Options, node.WithParser(schema.NewParser(schema.WithStrict(true))))
	}
	if e.metrics != nil {
		e.deps.Options = append(e.deps.Options, node.WithObserver(e.metrics))
		e.execOpts = append(e.execOpts, workflow.WithMetrics(e.metrics))
	}

	e.registry = registry.Default(e.deps)
	e.executor = workflow.NewExecutor(e.registry, e.execOpts...)
	return e
}

// Registry exposes the node type registry, e.g. to register custom types.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// Store returns the run store in use.
func (e *Engine) Store() ports.RunStore { return e.executor.Store() }

// Validate checks a definition against the registered node types.
func (e *Engine) Validate(def *workflow.Definition) error {
	return workflow.Validate(def, e.registry)
}

// Run executes a definition with the given initial inputs.
func (e *Engine) Run(ctx context.Context, def *workflow.Definition, inputs map[string]any) (*workflow.Result, error) {
	return e.executor.Run(ctx, def, inputs)
}

// LoadDefinition reads a workflow from a YAML or JSON file, or from a
// directory holding one document per node.
func LoadDefinition(ctx context.Context, path string) (*workflow.Definition, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow: %w", err)
	}
	if !info.IsDir() {
		return workflow.Load(path)
	}

	loader, err := loamAdapter.Open(path)
	if err != nil {
		return nil, err
	}
	return loader.Load(ctx)
}

// RunFile loads a definition with LoadDefinition and runs it.
func (e *Engine) RunFile(ctx context.Context, path string, inputs map[string]any) (*workflow.Result, error) {
	def, err := LoadDefinition(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow: %w", err)
	}
	return e.Run(ctx, def, inputs)
}

// Resume continues a paused or failed run.
func (e *Engine) Resume(ctx context.Context, runID string, def *workflow.Definition) (*workflow.Result, error) {
	return e.executor.Resume(ctx, runID, def)
}
