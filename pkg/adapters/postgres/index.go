package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IndexRegistry implements ports.IndexRegistry.
// Each session holds one pooled connection until released.
type IndexRegistry struct {
	pool *pgxpool.Pool
}

// NewIndexRegistry creates a registry over pool.
func NewIndexRegistry(pool *pgxpool.Pool) *IndexRegistry {
	return &IndexRegistry{pool: pool}
}

// Acquire takes a connection from the pool.
func (r *IndexRegistry) Acquire(ctx context.Context) (ports.IndexSession, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &indexSession{conn: conn}, nil
}

// CreateIndex inserts index metadata, assigning the next VI id when ID is empty.
func (r *IndexRegistry) CreateIndex(ctx context.Context, idx *domain.VectorIndex) error {
	if idx.Status == "" {
		idx.Status = domain.IndexPending
	}
	row := r.pool.QueryRow(ctx, `
		WITH s AS (SELECT nextval(pg_get_serial_sequence('vector_indices', 'seq')) AS n)
		INSERT INTO vector_indices (seq, id, name, description, status, embedding_model)
		SELECT n, COALESCE(NULLIF($1, ''), 'VI' || n), $2, $3, $4, $5 FROM s
		RETURNING id, created_at, updated_at`,
		idx.ID, idx.Name, idx.Description, string(idx.Status), idx.EmbeddingModel)
	if err := row.Scan(&idx.ID, &idx.CreatedAt, &idx.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert vector index: %w", err)
	}
	return nil
}

// SetStatus changes the status of an existing index.
func (r *IndexRegistry) SetStatus(ctx context.Context, id string, status domain.IndexStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE vector_indices SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("failed to update vector index: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrIndexNotFound
	}
	return nil
}

type indexSession struct {
	conn *pgxpool.Conn
	once sync.Once
}

func (s *indexSession) GetIndex(ctx context.Context, id string) (*domain.VectorIndex, error) {
	var (
		idx    domain.VectorIndex
		status string
	)
	err := s.conn.QueryRow(ctx, `
		SELECT id, name, description, status, embedding_model, created_at, updated_at
		FROM vector_indices WHERE id = $1`, id).
		Scan(&idx.ID, &idx.Name, &idx.Description, &status, &idx.EmbeddingModel, &idx.CreatedAt, &idx.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIndexNotFound
		}
		return nil, fmt.Errorf("failed to load vector index: %w", err)
	}
	idx.Status = domain.IndexStatus(status)
	return &idx, nil
}

func (s *indexSession) Release() {
	s.once.Do(s.conn.Release)
}
