package weaviate_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/spindle/pkg/adapters/weaviate"
	"github.com/aretw0/spindle/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, graphql string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/meta":
			_, _ = w.Write([]byte(`{"version":"1.25.0"}`))
		case "/v1/graphql":
			var body struct{ Query string }
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Contains(t, body.Query, "SpindleVI1")
			assert.Contains(t, body.Query, "nearText")
			_, _ = w.Write([]byte(graphql))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSearcher_Search(t *testing.T) {
	srv := newServer(t, `{"data":{"Get":{"SpindleVI1":[
		{"text":"paris is the capital","documentId":"d1","chunkId":"c1","documentTitle":"Geo","pageNumber":3,"chunkNumber":1,"_additional":{"certainty":0.91}},
		{"text":"lyon","documentId":"d1","chunkId":"c2","documentTitle":null,"pageNumber":null,"chunkNumber":null,"_additional":{"certainty":0.5}}
	]}}}`)

	s, err := weaviate.New("http", strings.TrimPrefix(srv.URL, "http://"))
	require.NoError(t, err)

	hits, err := s.Search(context.Background(), ports.SearchRequest{IndexID: "VI1", Query: "capital", TopK: 2})
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "paris is the capital", hits[0].Text)
	assert.InDelta(t, 0.91, hits[0].Score, 1e-9)
	require.NotNil(t, hits[0].Metadata.DocumentTitle)
	assert.Equal(t, "Geo", *hits[0].Metadata.DocumentTitle)
	require.NotNil(t, hits[0].Metadata.PageNumber)
	assert.Equal(t, 3, *hits[0].Metadata.PageNumber)

	m := hits[1].ToMap()["metadata"].(map[string]any)
	assert.Nil(t, m["document_title"])
	assert.Nil(t, m["page_number"])
	assert.Equal(t, "c2", m["chunk_id"])
}

func TestSearcher_GraphQLError(t *testing.T) {
	srv := newServer(t, `{"errors":[{"message":"class not found"}]}`)

	s, err := weaviate.New("http", strings.TrimPrefix(srv.URL, "http://"))
	require.NoError(t, err)

	_, err = s.Search(context.Background(), ports.SearchRequest{IndexID: "VI1", Query: "q", TopK: 1})
	assert.ErrorIs(t, err, weaviate.ErrQuery)
	assert.Contains(t, err.Error(), "class not found")
}

func TestClassName(t *testing.T) {
	assert.Equal(t, "SpindleVI7", weaviate.ClassName("vi7"))
}
