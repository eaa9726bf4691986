package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/spindle/internal/logging"
	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/schema"
	"github.com/mitchellh/mapstructure"
)

// ErrNoValue is returned by Input and Output before the first successful call.
var ErrNoValue = errors.New("node has not been called yet")

// Logic is the per-type computation of a node.
// It receives the validated input and returns a value compatible with the
// bound output shape (a Record, a Dumper, a string-keyed map or a struct).
type Logic interface {
	Run(ctx context.Context, in schema.Record) (any, error)
}

// LogicFunc adapts a plain function to the Logic interface.
type LogicFunc func(ctx context.Context, in schema.Record) (any, error)

func (f LogicFunc) Run(ctx context.Context, in schema.Record) (any, error) {
	return f(ctx, in)
}

// Node is an executable, configured graph node.
type Node interface {
	Name() string
	Descriptor() domain.NodeTypeDescriptor
	Config() domain.NodeConfig
	Call(ctx context.Context, input any) (schema.Record, error)
	Input() (schema.Record, error)
	Output() (schema.Record, error)
}

// Observer receives the outcome of every invocation.
type Observer interface {
	ObserveCall(nodeType string, err error, elapsed time.Duration)
}

// Option configures a Base.
type Option func(*Base)

// WithLogger sets the logger used for invocation logs.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Base) {
		b.logger = logger
	}
}

// WithParser sets the type token parser used to build output shapes.
func WithParser(p *schema.Parser) Option {
	return func(b *Base) {
		b.parser = p
	}
}

// WithInputShape declares the input shape of the instance, overriding the
// descriptor's.
func WithInputShape(shape *schema.Shape) Option {
	return func(b *Base) {
		b.declaredInput = shape
	}
}

// WithObserver registers an invocation observer.
func WithObserver(o Observer) Option {
	return func(b *Base) {
		b.observer = o
	}
}

// Base carries the state shared by every node type: the owned config, the
// bound input and output shapes, and the last validated input and output.
//
// Call is serialized per instance. Shape and cache reads may happen
// concurrently with a running Call.
type Base struct {
	name     string
	desc     domain.NodeTypeDescriptor
	logic    Logic
	parser   *schema.Parser
	logger   *slog.Logger
	observer Observer

	callMu sync.Mutex

	mu            sync.RWMutex
	cfg           domain.NodeConfig
	declaredInput *schema.Shape
	inputShape    *schema.Shape
	outputShape   *schema.Shape
	input         schema.Record
	output        schema.Record
}

// NewBase creates the shared node state.
// The output shape is bound from the config when it is fixed, otherwise from
// the descriptor's output template if there is one.
func NewBase(name string, desc domain.NodeTypeDescriptor, cfg domain.NodeConfig, logic Logic, opts ...Option) (*Base, error) {
	b := &Base{
		name:   name,
		desc:   desc.WithDefaults(),
		logic:  logic,
		parser: schema.NewParser(),
		logger: logging.NewNop(),
		cfg:    cfg.Clone(),
	}
	b.declaredInput = b.desc.InputShape
	for _, opt := range opts {
		opt(b)
	}
	b.inputShape = b.declaredInput

	if b.cfg.HasFixedOutput {
		if _, err := b.CreateOutputShape(b.cfg.OutputSchema); err != nil {
			return nil, fmt.Errorf("node %q: %w", name, err)
		}
	} else if b.desc.OutputShape != nil {
		b.outputShape = b.desc.OutputShape
	}
	return b, nil
}

func (b *Base) Name() string { return b.name }

func (b *Base) Descriptor() domain.NodeTypeDescriptor { return b.desc }

// Logger returns the node logger, scoped to the node name.
func (b *Base) Logger() *slog.Logger {
	return b.logger.With("node", b.name, "type", b.desc.Name)
}

// Parser returns the type token parser of the node.
func (b *Base) Parser() *schema.Parser { return b.parser }

// Config returns a copy of the node configuration.
func (b *Base) Config() domain.NodeConfig {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cfg.Clone()
}

// UpdateConfig replaces the node configuration.
// A fixed-output config rebinds the output shape.
func (b *Base) UpdateConfig(cfg domain.NodeConfig) error {
	if cfg.HasFixedOutput {
		shape, err := b.parser.ShapeFromTypeMap(b.name, cfg.OutputSchema)
		if err != nil {
			return fmt.Errorf("node %q: %w", b.name, err)
		}
		b.BindOutputShape(shape)
	}

	b.mu.Lock()
	b.cfg = cfg.Clone()
	b.mu.Unlock()
	return nil
}

// CreateOutputShape builds an output shape from a field name -> type token
// mapping and binds it. Unrecognized tokens follow the parser policy.
func (b *Base) CreateOutputShape(outputSchema map[string]string) (*schema.Shape, error) {
	shape, err := b.parser.ShapeFromTypeMap(b.name, outputSchema)
	if err != nil {
		return nil, err
	}
	b.BindOutputShape(shape)
	return shape, nil
}

// BindOutputShape replaces the output shape.
// A previously cached output is revalidated on the next Output call.
func (b *Base) BindOutputShape(shape *schema.Shape) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outputShape = shape
}

// BindInputShape replaces the input shape.
func (b *Base) BindInputShape(shape *schema.Shape) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inputShape = shape
}

// DeclareInputShape fixes the input shape raw inputs are validated against.
func (b *Base) DeclareInputShape(shape *schema.Shape) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.declaredInput = shape
	b.inputShape = shape
}

// OutputShape returns the bound output shape, or nil.
func (b *Base) OutputShape() *schema.Shape {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.outputShape
}

// InputShape returns the bound input shape, or nil.
func (b *Base) InputShape() *schema.Shape {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.inputShape
}

// ComposeInputShape builds the composite input shape for a set of predecessor
// outputs and binds it. There is one field per predecessor, named by its graph
// id and typed by its output shape.
func (b *Base) ComposeInputShape(preds map[string]schema.Record) *schema.Shape {
	ids := make([]string, 0, len(preds))
	for id := range preds {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fields := make([]schema.Field, 0, len(ids))
	for _, id := range ids {
		fields = append(fields, schema.Field{Name: id, Type: preds[id].Shape()})
	}
	shape := schema.NewShape(b.name+"Input", fields...)
	b.BindInputShape(shape)
	return shape
}

// Input returns the last validated input, revalidated against the bound input shape.
func (b *Base) Input() (schema.Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.input.IsZero() {
		return schema.Record{}, ErrNoValue
	}
	if b.inputShape == nil {
		return b.input, nil
	}
	rec, err := b.inputShape.Coerce(b.input)
	if err != nil {
		return schema.Record{}, domain.NewNodeError(b.name, domain.ErrInputValidation, err)
	}
	return rec, nil
}

// Output returns the last validated output, revalidated against the bound output shape.
func (b *Base) Output() (schema.Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.output.IsZero() {
		return schema.Record{}, ErrNoValue
	}
	if b.outputShape == nil {
		return schema.Record{}, domain.NewNodeError(b.name, domain.ErrOutputValidation, errors.New("output shape not bound"))
	}
	rec, err := b.outputShape.Coerce(b.output)
	if err != nil {
		return schema.Record{}, domain.NewNodeError(b.name, domain.ErrOutputValidation, err)
	}
	return rec, nil
}

// Call validates the input, runs the node logic and validates its result.
//
// input is either a map of predecessor graph id -> predecessor output Record,
// a Record, or a raw string-keyed mapping.
func (b *Base) Call(ctx context.Context, input any) (out schema.Record, err error) {
	b.callMu.Lock()
	defer b.callMu.Unlock()

	log := b.Logger()
	start := time.Now()
	defer func() {
		if b.observer != nil {
			b.observer.ObserveCall(b.desc.Name, err, time.Since(start))
		}
		if err != nil {
			log.Debug("node call failed", "error", err, "elapsed", time.Since(start))
			return
		}
		log.Debug("node call completed", "elapsed", time.Since(start))
	}()

	in, err := b.bindInput(input)
	if err != nil {
		return schema.Record{}, domain.NewNodeError(b.name, domain.ErrInputValidation, err)
	}

	result, err := b.logic.Run(ctx, in)
	if err != nil {
		return schema.Record{}, b.wrapLogicError(err)
	}

	out, err = b.validateOutput(result)
	if err != nil {
		return schema.Record{}, domain.NewNodeError(b.name, domain.ErrOutputValidation, err)
	}

	b.mu.Lock()
	b.input = in
	b.output = out
	b.mu.Unlock()
	return out, nil
}

func (b *Base) wrapLogicError(err error) error {
	var nerr *domain.NodeError
	if errors.As(err, &nerr) && nerr.Node == b.name {
		return err
	}
	if errors.Is(err, domain.ErrDependency) {
		return domain.NewNodeError(b.name, domain.ErrDependency, err)
	}
	return domain.NewNodeError(b.name, domain.ErrLogic, err)
}

func (b *Base) bindInput(input any) (schema.Record, error) {
	b.mu.RLock()
	declared := b.declaredInput
	b.mu.RUnlock()

	if preds, ok := predecessorRecords(input); ok {
		if declared != nil {
			data, err := flatten(preds)
			if err != nil {
				return schema.Record{}, err
			}
			return declared.Coerce(data)
		}
		shape := b.ComposeInputShape(preds)
		data := make(map[string]any, len(preds))
		for id, rec := range preds {
			data[id] = rec.Dump()
		}
		return shape.Coerce(data)
	}

	if rec, ok := input.(schema.Record); ok {
		if declared != nil {
			return declared.Coerce(rec)
		}
		if rec.IsZero() {
			return schema.Record{}, errors.New("empty record")
		}
		b.BindInputShape(rec.Shape())
		return rec, nil
	}

	if declared != nil {
		return declared.Coerce(input)
	}

	// Open input: the shape follows the value.
	data, err := toMap(input)
	if err != nil {
		return schema.Record{}, err
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	shape := schema.InferShape(b.name+"Input", keys, data)
	b.BindInputShape(shape)
	return shape.Coerce(data)
}

func (b *Base) validateOutput(result any) (schema.Record, error) {
	shape := b.OutputShape()
	if shape == nil {
		// Lazy binding from the configured output schema.
		outputSchema := b.Config().OutputSchema
		if len(outputSchema) == 0 {
			outputSchema = domain.DefaultOutputSchema
		}
		var err error
		if shape, err = b.CreateOutputShape(outputSchema); err != nil {
			return schema.Record{}, err
		}
	}

	switch v := result.(type) {
	case schema.Record:
		return shape.Coerce(v)
	case schema.Dumper:
		return shape.Coerce(v.Dump())
	}

	data, err := toMap(result)
	if err != nil {
		return schema.Record{}, err
	}
	return shape.Coerce(data)
}

// predecessorRecords reports whether input is a non-empty map whose values
// are all Records.
func predecessorRecords(input any) (map[string]schema.Record, bool) {
	switch v := input.(type) {
	case map[string]schema.Record:
		for _, rec := range v {
			if rec.IsZero() {
				return nil, false
			}
		}
		return v, len(v) > 0
	case map[string]any:
		if len(v) == 0 {
			return nil, false
		}
		out := make(map[string]schema.Record, len(v))
		for k, val := range v {
			rec, ok := val.(schema.Record)
			if !ok || rec.IsZero() {
				return nil, false
			}
			out[k] = rec
		}
		return out, true
	}
	return nil, false
}

// flatten merges predecessor fields into one mapping.
// A field supplied by two predecessors is an error.
func flatten(preds map[string]schema.Record) (map[string]any, error) {
	ids := make([]string, 0, len(preds))
	for id := range preds {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make(map[string]any)
	owner := make(map[string]string)
	for _, id := range ids {
		for k, v := range preds[id].Dump() {
			if prev, ok := owner[k]; ok {
				return nil, fmt.Errorf("field %q supplied by both %s and %s", k, prev, id)
			}
			owner[k] = id
			out[k] = v
		}
	}
	return out, nil
}

// toMap converts string-keyed maps and structs into a plain mapping.
func toMap(value any) (map[string]any, error) {
	if m, ok := value.(map[string]any); ok {
		return m, nil
	}
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Struct:
		var out map[string]any
		if err := mapstructure.Decode(rv.Interface(), &out); err != nil {
			return nil, fmt.Errorf("decode %T: %w", value, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected object, got %T", value)
	}
}
