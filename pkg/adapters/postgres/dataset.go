package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/spindle/pkg/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DatasetStore implements ports.DatasetStore.
type DatasetStore struct {
	pool *pgxpool.Pool
}

func NewDatasetStore(pool *pgxpool.Pool) *DatasetStore {
	return &DatasetStore{pool: pool}
}

// CreateDataset inserts ds, assigning the next DS id when ID is empty.
func (s *DatasetStore) CreateDataset(ctx context.Context, ds *domain.Dataset) error {
	row := s.pool.QueryRow(ctx, `
		WITH s AS (SELECT nextval(pg_get_serial_sequence('datasets', 'seq')) AS n)
		INSERT INTO datasets (seq, id, name, description, file_path)
		SELECT n, COALESCE(NULLIF($1, ''), 'DS' || n), $2, $3, $4 FROM s
		RETURNING id, uploaded_at`,
		ds.ID, ds.Name, ds.Description, ds.FilePath)
	if err := row.Scan(&ds.ID, &ds.UploadedAt); err != nil {
		return fmt.Errorf("failed to insert dataset: %w", err)
	}
	return nil
}

func (s *DatasetStore) GetDataset(ctx context.Context, id string) (*domain.Dataset, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, description, file_path, uploaded_at FROM datasets WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	ds, err := pgx.CollectExactlyOneRow(rows, scanDataset)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDatasetNotFound
		}
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	return ds, nil
}

// ListDatasets returns every dataset, oldest first.
func (s *DatasetStore) ListDatasets(ctx context.Context) ([]*domain.Dataset, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, description, file_path, uploaded_at FROM datasets ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanDataset)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	return out, nil
}

func scanDataset(row pgx.CollectableRow) (*domain.Dataset, error) {
	var ds domain.Dataset
	err := row.Scan(&ds.ID, &ds.Name, &ds.Description, &ds.FilePath, &ds.UploadedAt)
	return &ds, err
}
