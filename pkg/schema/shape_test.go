package schema_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/spindle/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunkShape() *schema.Shape {
	return schema.NewShape("RetrievalResult",
		schema.Field{Name: "text", Type: schema.String()},
		schema.Field{Name: "score", Type: schema.Float()},
		schema.Field{Name: "page", Type: schema.Optional(schema.Int())},
	)
}

func TestShape_FieldOrderAndReplace(t *testing.T) {
	s := schema.NewShape("s",
		schema.Field{Name: "b", Type: schema.String()},
		schema.Field{Name: "a", Type: schema.Int()},
		schema.Field{Name: "b", Type: schema.Bool()},
	)

	assert.Equal(t, []string{"b", "a"}, s.FieldNames())
	typ, ok := s.Field("b")
	require.True(t, ok)
	assert.Equal(t, "boolean", typ.Name())
	assert.Equal(t, map[string]string{"a": "integer", "b": "boolean"}, s.TypeMap())
}

func TestShape_CoerceAcceptsExactMatch(t *testing.T) {
	s := chunkShape()
	rec, err := s.Coerce(map[string]any{"text": "hello", "score": 0.5, "page": nil, "extra": true})
	require.NoError(t, err)

	assert.Equal(t, []string{"text", "score", "page"}, rec.Keys())
	_, hasExtra := rec.Get("extra")
	assert.False(t, hasExtra, "fields outside the shape are dropped")
	assert.Equal(t, map[string]any{"text": "hello", "score": 0.5, "page": nil}, rec.Dump())
}

func TestShape_CoerceRejectsMissingAndMistyped(t *testing.T) {
	s := chunkShape()

	_, err := s.Coerce(map[string]any{"text": 3, "page": "one"})
	require.Error(t, err)

	var aggr *schema.AggregateError
	require.ErrorAs(t, err, &aggr)
	assert.ElementsMatch(t, []string{"text", "score", "page"}, aggr.Fields())
}

func TestShape_CoerceNotAMapping(t *testing.T) {
	_, err := chunkShape().Coerce("just text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected object")
}

func TestShape_NestedShapesBecomeRecords(t *testing.T) {
	out := schema.NewShape("retriever_output",
		schema.Field{Name: "results", Type: schema.List(chunkShape())},
		schema.Field{Name: "total_results", Type: schema.Int()},
	)

	rec, err := out.Coerce(map[string]any{
		"results": []map[string]any{
			{"text": "a", "score": 0.9, "page": 1},
			{"text": "b", "score": 0.1, "page": nil},
		},
		"total_results": 2,
	})
	require.NoError(t, err)

	results, _ := rec.Get("results")
	list, ok := results.([]any)
	require.True(t, ok)
	first, ok := list[0].(schema.Record)
	require.True(t, ok, "list elements should be records")
	assert.Equal(t, "RetrievalResult", first.Shape().Name())

	dumped := rec.Dump()
	assert.Equal(t, "a", dumped["results"].([]any)[0].(map[string]any)["text"])
}

func TestShape_NestedErrorPaths(t *testing.T) {
	out := schema.NewShape("retriever_output",
		schema.Field{Name: "results", Type: schema.List(chunkShape())},
	)

	_, err := out.Coerce(map[string]any{
		"results": []any{
			map[string]any{"text": "a", "score": 0.9, "page": 1},
			map[string]any{"text": "b", "page": 2},
		},
	})
	require.Error(t, err)

	var aggr *schema.AggregateError
	require.ErrorAs(t, err, &aggr)
	assert.Equal(t, []string{"results[1].score"}, aggr.Fields())
}

func TestShape_RecordRoundTrip(t *testing.T) {
	inner := schema.NewShape("point", schema.Field{Name: "x", Type: schema.Int()})
	outer := schema.NewShape("composite", schema.Field{Name: "node_a", Type: inner})

	a, err := inner.Coerce(map[string]any{"x": 1})
	require.NoError(t, err)

	composite, err := outer.Coerce(map[string]any{"node_a": a})
	require.NoError(t, err)

	again, err := outer.Coerce(composite.Dump())
	require.NoError(t, err)
	assert.True(t, composite.Equal(again))

	// A record is accepted directly as well.
	same, err := outer.Coerce(composite)
	require.NoError(t, err)
	assert.True(t, composite.Equal(same))
}

func TestShape_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(chunkShape())
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"RetrievalResult","fields":{"text":"string","score":"number","page":"optional[integer]"}}`, string(data))

	rec, err := chunkShape().Coerce(map[string]any{"text": "t", "score": 1.0, "page": 3})
	require.NoError(t, err)
	data, err = json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"t","score":1,"page":3}`, string(data))
}

func TestSchema_JSONRoundTrip(t *testing.T) {
	var s schema.Schema
	require.NoError(t, json.Unmarshal([]byte(`{"query":"string","top_k":"integer","meta":"SomeModel"}`), &s))

	assert.Equal(t, "string", s["query"].Name())
	assert.Equal(t, "integer", s["top_k"].Name())
	assert.Equal(t, "SomeModel", s["meta"].Name(), "unknown tokens survive as opaque types")

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":"string","top_k":"integer","meta":"SomeModel"}`, string(data))

	assert.Error(t, json.Unmarshal([]byte(`{"query": 1}`), &s))
}
