// Package postgres stores vector index metadata and datasets in PostgreSQL
// and searches chunk embeddings with pgvector.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolConfig tunes the connection pool.
type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string, pc PoolConfig) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if pc.MaxConns > 0 {
		config.MaxConns = pc.MaxConns
	}
	if pc.MinConns > 0 {
		config.MinConns = pc.MinConns
	}
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// Migrate creates the tables used by this package.
// dimensions is the embedding width of the chunk table.
func Migrate(ctx context.Context, pool *pgxpool.Pool, dimensions int) error {
	for _, q := range schemaQueries(dimensions) {
		if _, err := pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}
	return nil
}

func schemaQueries(dimensions int) []string {
	return []string{
		"CREATE EXTENSION IF NOT EXISTS vector;",
		`CREATE TABLE IF NOT EXISTS vector_indices (
			seq BIGSERIAL UNIQUE,
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			embedding_model TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS datasets (
			seq BIGSERIAL UNIQUE,
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			file_path TEXT NOT NULL,
			uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunks (
			index_id TEXT NOT NULL REFERENCES vector_indices(id) ON DELETE CASCADE,
			chunk_id TEXT NOT NULL,
			document_id TEXT NOT NULL,
			document_title TEXT,
			page_number INT,
			chunk_number INT,
			content TEXT NOT NULL,
			embedding vector(%d),
			PRIMARY KEY (index_id, chunk_id)
		);`, dimensions),
		"CREATE INDEX IF NOT EXISTS chunks_embedding_idx ON chunks USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);",
	}
}
