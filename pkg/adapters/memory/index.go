package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/ports"
)

// IndexRegistry implements ports.IndexRegistry and ports.VectorSearcher in memory.
// Search scores chunks by the share of query terms they contain.
// Safe for concurrent use.
type IndexRegistry struct {
	mu      sync.RWMutex
	indices map[string]*domain.VectorIndex
	chunks  map[string][]domain.ScoredChunk

	open     atomic.Int64
	searches atomic.Int64
}

// NewIndexRegistry creates an empty registry.
func NewIndexRegistry() *IndexRegistry {
	return &IndexRegistry{
		indices: make(map[string]*domain.VectorIndex),
		chunks:  make(map[string][]domain.ScoredChunk),
	}
}

// PutIndex adds or replaces an index together with its chunks.
func (r *IndexRegistry) PutIndex(idx domain.VectorIndex, chunks ...domain.ScoredChunk) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if idx.CreatedAt.IsZero() {
		idx.CreatedAt = now
	}
	idx.UpdatedAt = now
	r.indices[idx.ID] = &idx
	r.chunks[idx.ID] = append([]domain.ScoredChunk(nil), chunks...)
}

// SetStatus changes the status of an existing index.
func (r *IndexRegistry) SetStatus(id string, status domain.IndexStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.indices[id]
	if !ok {
		return domain.ErrIndexNotFound
	}
	idx.Status = status
	idx.UpdatedAt = time.Now().UTC()
	return nil
}

// OpenSessions returns the number of acquired sessions not yet released.
func (r *IndexRegistry) OpenSessions() int64 { return r.open.Load() }

// Searches returns the number of Search calls issued.
func (r *IndexRegistry) Searches() int64 { return r.searches.Load() }

// Acquire opens a session.
func (r *IndexRegistry) Acquire(ctx context.Context) (ports.IndexSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.open.Add(1)
	return &indexSession{registry: r}, nil
}

// Search ranks the chunks of an index against the query.
func (r *IndexRegistry) Search(ctx context.Context, req ports.SearchRequest) ([]domain.ScoredChunk, error) {
	r.searches.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	chunks, ok := r.chunks[req.IndexID]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrIndexNotFound
	}

	terms := tokenize(req.Query)
	hits := make([]domain.ScoredChunk, 0, len(chunks))
	for _, c := range chunks {
		score := overlap(terms, tokenize(c.Text))
		if score == 0 {
			continue
		}
		c.Score = score
		hits = append(hits, c)
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	if req.TopK > 0 && len(hits) > req.TopK {
		hits = hits[:req.TopK]
	}
	return hits, nil
}

type indexSession struct {
	registry *IndexRegistry
	released atomic.Bool
}

func (s *indexSession) GetIndex(ctx context.Context, id string) (*domain.VectorIndex, error) {
	s.registry.mu.RLock()
	defer s.registry.mu.RUnlock()

	idx, ok := s.registry.indices[id]
	if !ok {
		return nil, domain.ErrIndexNotFound
	}
	c := *idx
	return &c, nil
}

func (s *indexSession) Release() {
	if s.released.CompareAndSwap(false, true) {
		s.registry.open.Add(-1)
	}
}

func tokenize(s string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func overlap(query, doc map[string]struct{}) float64 {
	if len(query) == 0 {
		return 0
	}
	var n int
	for w := range query {
		if _, ok := doc[w]; ok {
			n++
		}
	}
	return float64(n) / float64(len(query))
}
