package domain

import "time"

// IndexStatus is the lifecycle state of a vector index.
type IndexStatus string

const (
	IndexPending    IndexStatus = "pending"
	IndexProcessing IndexStatus = "processing"
	IndexReady      IndexStatus = "ready"
	IndexFailed     IndexStatus = "failed"
)

// VectorIndex is a searchable index built from a document collection.
type VectorIndex struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Status      IndexStatus `json:"status"`
	// EmbeddingModel used to build the index, so queries can be embedded alike.
	EmbeddingModel string    `json:"embedding_model,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ChunkMetadata locates a chunk inside its source document.
type ChunkMetadata struct {
	DocumentID    string  `json:"document_id"`
	ChunkID       string  `json:"chunk_id"`
	DocumentTitle *string `json:"document_title,omitempty"`
	PageNumber    *int    `json:"page_number,omitempty"`
	ChunkNumber   *int    `json:"chunk_number,omitempty"`
}

// ToMap converts the metadata to the mapping carried in node outputs.
func (m ChunkMetadata) ToMap() map[string]any {
	out := map[string]any{
		"document_id":    m.DocumentID,
		"chunk_id":       m.ChunkID,
		"document_title": nil,
		"page_number":    nil,
		"chunk_number":   nil,
	}
	if m.DocumentTitle != nil {
		out["document_title"] = *m.DocumentTitle
	}
	if m.PageNumber != nil {
		out["page_number"] = *m.PageNumber
	}
	if m.ChunkNumber != nil {
		out["chunk_number"] = *m.ChunkNumber
	}
	return out
}

// ScoredChunk is one similarity search hit.
type ScoredChunk struct {
	Text     string        `json:"text"`
	Score    float64       `json:"score"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ToMap converts the hit to the mapping carried in node outputs.
func (c ScoredChunk) ToMap() map[string]any {
	return map[string]any{
		"text":     c.Text,
		"score":    c.Score,
		"metadata": c.Metadata.ToMap(),
	}
}
