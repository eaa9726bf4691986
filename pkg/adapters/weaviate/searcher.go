// Package weaviate searches vector indices stored as Weaviate classes.
package weaviate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/ports"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
)

// ErrQuery is returned when Weaviate reports GraphQL errors.
var ErrQuery = errors.New("weaviate query failed")

// ClassName maps a vector index id to the Weaviate class holding its chunks.
func ClassName(indexID string) string {
	return "Spindle" + strings.ToUpper(indexID)
}

var fields = []graphql.Field{
	{Name: "text"},
	{Name: "documentId"},
	{Name: "chunkId"},
	{Name: "documentTitle"},
	{Name: "pageNumber"},
	{Name: "chunkNumber"},
	{Name: "_additional { certainty }"},
}

// Searcher implements ports.VectorSearcher with nearText queries,
// one class per vector index.
type Searcher struct {
	client *weaviate.Client
}

// New connects to a Weaviate instance at scheme://host.
func New(scheme, host string) (*Searcher, error) {
	client, err := weaviate.NewClient(weaviate.Config{Scheme: scheme, Host: host})
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %w", err)
	}
	return NewFromClient(client), nil
}

func NewFromClient(client *weaviate.Client) *Searcher {
	return &Searcher{client: client}
}

func (s *Searcher) Search(ctx context.Context, req ports.SearchRequest) ([]domain.ScoredChunk, error) {
	class := ClassName(req.IndexID)
	nearText := s.client.GraphQL().NearTextArgBuilder().
		WithConcepts([]string{req.Query})

	result, err := s.client.GraphQL().Get().
		WithClassName(class).
		WithFields(fields...).
		WithNearText(nearText).
		WithLimit(req.TopK).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrQuery, result.Errors[0].Message)
	}

	data, ok := result.Data["Get"].(map[string]any)
	if !ok {
		return nil, nil
	}
	objects, _ := data[class].([]any)

	out := make([]domain.ScoredChunk, 0, len(objects))
	for _, obj := range objects {
		m, ok := obj.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, toChunk(m))
	}
	return out, nil
}

func toChunk(m map[string]any) domain.ScoredChunk {
	c := domain.ScoredChunk{
		Text: stringOf(m["text"]),
		Metadata: domain.ChunkMetadata{
			DocumentID:  stringOf(m["documentId"]),
			ChunkID:     stringOf(m["chunkId"]),
			PageNumber:  intPtr(m["pageNumber"]),
			ChunkNumber: intPtr(m["chunkNumber"]),
		},
	}
	if title, ok := m["documentTitle"].(string); ok {
		c.Metadata.DocumentTitle = &title
	}
	if add, ok := m["_additional"].(map[string]any); ok {
		if certainty, ok := add["certainty"].(float64); ok {
			c.Score = certainty
		}
	}
	return c
}

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}

func intPtr(v any) *int {
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	n := int(f)
	return &n
}
