package ports

import (
	"context"

	"github.com/aretw0/spindle/pkg/domain"
)

// IndexSession is a data-access session scoped to a single node invocation.
// Release must be called on every exit path.
type IndexSession interface {
	// GetIndex returns domain.ErrIndexNotFound if the index does not exist.
	GetIndex(ctx context.Context, id string) (*domain.VectorIndex, error)
	Release()
}

// IndexRegistry hands out sessions over the vector index metadata.
type IndexRegistry interface {
	Acquire(ctx context.Context) (IndexSession, error)
}

// SearchRequest is a similarity query against one vector index.
type SearchRequest struct {
	IndexID string
	Query   string
	TopK    int
}

// VectorSearcher runs similarity search against a vector index service.
type VectorSearcher interface {
	Search(ctx context.Context, req SearchRequest) ([]domain.ScoredChunk, error)
}

// Embedder converts texts into embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
