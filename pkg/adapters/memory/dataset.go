package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/spindle/pkg/domain"
)

// DatasetStore implements ports.DatasetStore in memory.
type DatasetStore struct {
	mu   sync.RWMutex
	seq  int64
	data map[string]*domain.Dataset
}

// NewDatasetStore creates an empty dataset store.
func NewDatasetStore() *DatasetStore {
	return &DatasetStore{data: make(map[string]*domain.Dataset)}
}

func (s *DatasetStore) CreateDataset(ctx context.Context, ds *domain.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ds.ID == "" {
		s.seq++
		ds.ID = domain.DatasetID(s.seq)
	}
	if ds.UploadedAt.IsZero() {
		ds.UploadedAt = time.Now().UTC()
	}
	c := *ds
	s.data[ds.ID] = &c
	return nil
}

func (s *DatasetStore) GetDataset(ctx context.Context, id string) (*domain.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, ok := s.data[id]
	if !ok {
		return nil, domain.ErrDatasetNotFound
	}
	c := *ds
	return &c, nil
}

func (s *DatasetStore) ListDatasets(ctx context.Context) ([]*domain.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Dataset, 0, len(s.data))
	for _, ds := range s.data {
		c := *ds
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.Before(out[j].UploadedAt) })
	return out, nil
}
