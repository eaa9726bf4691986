package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ErrNoEmbedding is returned when the embedder yields no vector for the query.
var ErrNoEmbedding = errors.New("embedder returned no vector")

const searchQuery = `
	SELECT chunk_id, document_id, document_title, page_number, chunk_number, content,
		1 - (embedding <=> $2) AS score
	FROM chunks
	WHERE index_id = $1
	ORDER BY embedding <=> $2
	LIMIT $3`

// Searcher implements ports.VectorSearcher with pgvector cosine distance.
type Searcher struct {
	pool     *pgxpool.Pool
	embedder ports.Embedder
}

func NewSearcher(pool *pgxpool.Pool, embedder ports.Embedder) *Searcher {
	return &Searcher{pool: pool, embedder: embedder}
}

// Chunk is a document fragment to be indexed.
type Chunk struct {
	Text     string
	Metadata domain.ChunkMetadata
}

// AddChunks embeds and upserts chunks into an index.
func (s *Searcher) AddChunks(ctx context.Context, indexID string, chunks []Chunk) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vecs, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vecs) != len(chunks) {
		return fmt.Errorf("%w: got %d vectors for %d chunks", ErrNoEmbedding, len(vecs), len(chunks))
	}

	batch := &pgx.Batch{}
	for i, c := range chunks {
		m := c.Metadata
		batch.Queue(`
			INSERT INTO chunks (index_id, chunk_id, document_id, document_title, page_number, chunk_number, content, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (index_id, chunk_id) DO UPDATE SET
				content = EXCLUDED.content,
				embedding = EXCLUDED.embedding`,
			indexID, m.ChunkID, m.DocumentID, m.DocumentTitle, m.PageNumber, m.ChunkNumber, c.Text,
			pgvector.NewVector(vecs[i]))
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert chunks: %w", err)
	}
	return nil
}

// Search embeds the query and returns the TopK nearest chunks of the index.
func (s *Searcher) Search(ctx context.Context, req ports.SearchRequest) ([]domain.ScoredChunk, error) {
	vecs, err := s.embedder.Embed(ctx, []string{req.Query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vecs) == 0 {
		return nil, ErrNoEmbedding
	}

	rows, err := s.pool.Query(ctx, searchQuery, req.IndexID, pgvector.NewVector(vecs[0]), req.TopK)
	if err != nil {
		return nil, fmt.Errorf("failed to execute similarity search: %w", err)
	}
	defer rows.Close()

	var out []domain.ScoredChunk
	for rows.Next() {
		var c domain.ScoredChunk
		if err := rows.Scan(
			&c.Metadata.ChunkID, &c.Metadata.DocumentID, &c.Metadata.DocumentTitle,
			&c.Metadata.PageNumber, &c.Metadata.ChunkNumber, &c.Text, &c.Score,
		); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search results: %w", err)
	}
	return out, nil
}
