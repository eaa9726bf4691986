// Package retriever implements the retriever node, which queries a vector
// index for the chunks most similar to the input query.
package retriever

import (
	"context"
	"fmt"

	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/node"
	"github.com/aretw0/spindle/pkg/nodes/params"
	"github.com/aretw0/spindle/pkg/ports"
	"github.com/aretw0/spindle/pkg/schema"
)

// TypeName is the registered node type name.
const TypeName = "retriever_node"

// DefaultTopK is the number of results returned when top_k is not set.
const DefaultTopK = 5

var (
	// MetadataShape describes where a retrieved chunk comes from.
	MetadataShape = schema.NewShape("ChunkMetadata",
		schema.Field{Name: "document_id", Type: schema.String()},
		schema.Field{Name: "chunk_id", Type: schema.String()},
		schema.Field{Name: "document_title", Type: schema.Optional(schema.String())},
		schema.Field{Name: "page_number", Type: schema.Optional(schema.Int())},
		schema.Field{Name: "chunk_number", Type: schema.Optional(schema.Int())},
	)

	// ResultShape is one retrieved chunk.
	ResultShape = schema.NewShape("RetrievalResult",
		schema.Field{Name: "text", Type: schema.String()},
		schema.Field{Name: "score", Type: schema.Float()},
		schema.Field{Name: "metadata", Type: MetadataShape},
	)

	// InputShape is the retriever input.
	InputShape = schema.NewShape("RetrieverInput",
		schema.Field{Name: "query", Type: schema.String()},
	)

	// OutputShape is the retriever output.
	OutputShape = schema.NewShape("RetrieverOutput",
		schema.Field{Name: "results", Type: schema.List(ResultShape)},
		schema.Field{Name: "total_results", Type: schema.Int()},
	)

	// ConfigShape lists the retriever params.
	ConfigShape = schema.NewShape("RetrieverConfig",
		schema.Field{Name: "vector_index_id", Type: schema.String()},
		schema.Field{Name: "top_k", Type: schema.Int()},
	)
)

// Descriptor is the static metadata of the retriever node type.
var Descriptor = domain.NodeTypeDescriptor{
	Name:        TypeName,
	DisplayName: "Retriever",
	Category:    domain.CategoryLLM,
	ConfigShape: ConfigShape,
	InputShape:  InputShape,
	OutputShape: OutputShape,
}.WithDefaults()

// Settings are the retriever params.
type Settings struct {
	VectorIndexID string `mapstructure:"vector_index_id" validate:"required"`
	TopK          int    `mapstructure:"top_k" validate:"min=1,max=10"`
}

// Node searches a vector index with the input query.
type Node struct {
	*node.Base
	indices  ports.IndexRegistry
	searcher ports.VectorSearcher
}

// New creates a retriever node. The params are validated up front.
func New(name string, cfg domain.NodeConfig, indices ports.IndexRegistry, searcher ports.VectorSearcher, opts ...node.Option) (*Node, error) {
	if _, err := decodeSettings(cfg); err != nil {
		return nil, fmt.Errorf("node %q: %w", name, err)
	}

	cfg.HasFixedOutput = false
	cfg.OutputSchema = OutputShape.TypeMap()

	n := &Node{indices: indices, searcher: searcher}
	base, err := node.NewBase(name, Descriptor, cfg, n, opts...)
	if err != nil {
		return nil, err
	}
	n.Base = base
	return n, nil
}

// Settings returns the decoded params of the node.
func (n *Node) Settings() (Settings, error) {
	return decodeSettings(n.Config())
}

func (n *Node) Run(ctx context.Context, in schema.Record) (any, error) {
	settings, err := n.Settings()
	if err != nil {
		return nil, err
	}
	query, _ := in.Get("query")

	hits, err := n.retrieve(ctx, settings, query.(string))
	if err != nil {
		return nil, fmt.Errorf("%w: error retrieving from vector index: %w", domain.ErrDependency, err)
	}

	results := make([]any, len(hits))
	for i, h := range hits {
		results[i] = h.ToMap()
	}
	n.Logger().Debug("retrieved chunks", "index", settings.VectorIndexID, "count", len(results))

	return map[string]any{
		"results":       results,
		"total_results": len(results),
	}, nil
}

func (n *Node) retrieve(ctx context.Context, settings Settings, query string) ([]domain.ScoredChunk, error) {
	sess, err := n.indices.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Release()

	idx, err := sess.GetIndex(ctx, settings.VectorIndexID)
	if err != nil {
		return nil, fmt.Errorf("vector index %s: %w", settings.VectorIndexID, err)
	}
	if idx.Status != domain.IndexReady {
		return nil, fmt.Errorf("vector index %s: %w (status: %s)", settings.VectorIndexID, domain.ErrIndexNotReady, idx.Status)
	}

	return n.searcher.Search(ctx, ports.SearchRequest{
		IndexID: settings.VectorIndexID,
		Query:   query,
		TopK:    settings.TopK,
	})
}

func decodeSettings(cfg domain.NodeConfig) (Settings, error) {
	s := Settings{TopK: DefaultTopK}
	if err := params.Decode(cfg.Params, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}
