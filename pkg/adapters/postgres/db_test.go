package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaQueries(t *testing.T) {
	qs := schemaQueries(1536)
	joined := strings.Join(qs, "\n")

	assert.Contains(t, qs[0], "CREATE EXTENSION IF NOT EXISTS vector")
	assert.Contains(t, joined, "embedding vector(1536)")
	assert.Contains(t, joined, "vector_cosine_ops")
	for _, table := range []string{"vector_indices", "datasets", "chunks"} {
		assert.Contains(t, joined, "CREATE TABLE IF NOT EXISTS "+table)
	}
}

func TestSearchQueryUsesCosineDistance(t *testing.T) {
	assert.Contains(t, searchQuery, "1 - (embedding <=> $2)")
	assert.Contains(t, searchQuery, "LIMIT $3")
}
