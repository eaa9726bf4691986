package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/node"
	"github.com/aretw0/spindle/pkg/ports"
)

// ErrUnknownNodeType is returned when no factory is registered for a type name.
var ErrUnknownNodeType = errors.New("unknown node type")

// Deps are the collaborators node factories may need.
type Deps struct {
	Indices  ports.IndexRegistry
	Searcher ports.VectorSearcher
	LLM      ports.ChatCompleter
	// Options are applied to every node built by the registry.
	Options []node.Option
}

// Factory builds a node instance of one type.
type Factory func(name string, cfg domain.NodeConfig, deps Deps) (node.Node, error)

type entry struct {
	desc    domain.NodeTypeDescriptor
	factory Factory
}

// Registry manages the available node types.
type Registry struct {
	mu      sync.RWMutex
	deps    Deps
	entries map[string]entry
}

// NewRegistry creates a new empty registry.
func NewRegistry(deps Deps) *Registry {
	return &Registry{
		deps:    deps,
		entries: make(map[string]entry),
	}
}

// Register adds a node type to the registry.
// If a type with the same name exists, it is overwritten.
func (r *Registry) Register(desc domain.NodeTypeDescriptor, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	desc = desc.WithDefaults()
	r.entries[desc.Name] = entry{desc: desc, factory: factory}
}

// Descriptor looks up the metadata of a node type.
func (r *Registry) Descriptor(typeName string) (domain.NodeTypeDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[typeName]
	return e.desc, ok
}

// Descriptors returns every registered node type sorted by name.
func (r *Registry) Descriptors() []domain.NodeTypeDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.NodeTypeDescriptor, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.desc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Has reports whether a node type is registered.
func (r *Registry) Has(typeName string) bool {
	_, ok := r.Descriptor(typeName)
	return ok
}

// New builds a node instance of the given type.
func (r *Registry) New(typeName, name string, cfg domain.NodeConfig) (node.Node, error) {
	r.mu.RLock()
	e, ok := r.entries[typeName]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNodeType, typeName)
	}
	return e.factory(name, cfg, r.deps)
}
