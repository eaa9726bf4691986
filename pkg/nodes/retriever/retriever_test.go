package retriever_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/spindle/pkg/adapters/memory"
	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/nodes/params"
	"github.com/aretw0/spindle/pkg/nodes/retriever"
	"github.com/aretw0/spindle/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func config(p map[string]any) domain.NodeConfig {
	cfg := domain.DefaultNodeConfig()
	cfg.Params = p
	return cfg
}

func registry(status domain.IndexStatus) *memory.IndexRegistry {
	title := "Go Book"
	page := 12
	r := memory.NewIndexRegistry()
	r.PutIndex(domain.VectorIndex{ID: "VI1", Name: "docs", Status: status},
		domain.ScoredChunk{
			Text: "goroutines are lightweight threads",
			Metadata: domain.ChunkMetadata{
				DocumentID: "D1", ChunkID: "C1", DocumentTitle: &title, PageNumber: &page,
			},
		},
		domain.ScoredChunk{Text: "channels connect goroutines", Metadata: domain.ChunkMetadata{DocumentID: "D1", ChunkID: "C2"}},
		domain.ScoredChunk{Text: "unrelated text", Metadata: domain.ChunkMetadata{DocumentID: "D2", ChunkID: "C3"}},
	)
	return r
}

func TestRetriever_Run(t *testing.T) {
	reg := registry(domain.IndexReady)
	n, err := retriever.New("retrieve", config(map[string]any{"vector_index_id": "VI1", "top_k": 2}), reg, reg)
	require.NoError(t, err)

	out, err := n.Call(context.Background(), map[string]any{"query": "lightweight goroutines"})
	require.NoError(t, err)

	total, _ := out.Get("total_results")
	assert.Equal(t, 2, total)

	dump := out.Dump()
	results := dump["results"].([]any)
	require.Len(t, results, 2)
	first := results[0].(map[string]any)
	assert.Equal(t, "goroutines are lightweight threads", first["text"])
	assert.InDelta(t, 1.0, first["score"], 1e-9)
	meta := first["metadata"].(map[string]any)
	assert.Equal(t, "D1", meta["document_id"])
	assert.Equal(t, "Go Book", meta["document_title"])
	assert.Equal(t, 12, meta["page_number"])
	assert.Nil(t, meta["chunk_number"])

	assert.Zero(t, reg.OpenSessions())
}

func TestRetriever_NotReadyFailsBeforeSearch(t *testing.T) {
	reg := registry(domain.IndexProcessing)
	n, err := retriever.New("retrieve", config(map[string]any{"vector_index_id": "VI1"}), reg, reg)
	require.NoError(t, err)

	_, err = n.Call(context.Background(), map[string]any{"query": "goroutines"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDependency)
	assert.ErrorIs(t, err, domain.ErrIndexNotReady)
	assert.Contains(t, err.Error(), "error retrieving from vector index")
	assert.Contains(t, err.Error(), "processing")

	assert.Zero(t, reg.Searches())
	assert.Zero(t, reg.OpenSessions())
}

func TestRetriever_MissingIndex(t *testing.T) {
	reg := registry(domain.IndexReady)
	n, err := retriever.New("retrieve", config(map[string]any{"vector_index_id": "VI404"}), reg, reg)
	require.NoError(t, err)

	_, err = n.Call(context.Background(), map[string]any{"query": "goroutines"})
	assert.ErrorIs(t, err, domain.ErrDependency)
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
	assert.Zero(t, reg.Searches())
	assert.Zero(t, reg.OpenSessions())
}

type failingSearcher struct{ err error }

func (f failingSearcher) Search(context.Context, ports.SearchRequest) ([]domain.ScoredChunk, error) {
	return nil, f.err
}

func TestRetriever_SearchErrorReleasesSession(t *testing.T) {
	reg := registry(domain.IndexReady)
	boom := errors.New("weaviate unavailable")
	n, err := retriever.New("retrieve", config(map[string]any{"vector_index_id": "VI1"}), reg, failingSearcher{err: boom})
	require.NoError(t, err)

	_, err = n.Call(context.Background(), map[string]any{"query": "goroutines"})
	assert.ErrorIs(t, err, domain.ErrDependency)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, reg.OpenSessions())
}

func TestRetriever_MissingQuery(t *testing.T) {
	reg := registry(domain.IndexReady)
	n, err := retriever.New("retrieve", config(map[string]any{"vector_index_id": "VI1"}), reg, reg)
	require.NoError(t, err)

	_, err = n.Call(context.Background(), map[string]any{})
	assert.ErrorIs(t, err, domain.ErrInputValidation)
	assert.Contains(t, err.Error(), "query")
	assert.Zero(t, reg.Searches())
}

func TestRetriever_InvalidParams(t *testing.T) {
	reg := registry(domain.IndexReady)

	_, err := retriever.New("retrieve", config(map[string]any{}), reg, reg)
	assert.ErrorIs(t, err, params.ErrInvalidParams)

	_, err = retriever.New("retrieve", config(map[string]any{"vector_index_id": "VI1", "top_k": 11}), reg, reg)
	assert.ErrorIs(t, err, params.ErrInvalidParams)

	n, err := retriever.New("retrieve", config(map[string]any{"vector_index_id": "VI1"}), reg, reg)
	require.NoError(t, err)
	s, err := n.Settings()
	require.NoError(t, err)
	assert.Equal(t, retriever.DefaultTopK, s.TopK)
}
