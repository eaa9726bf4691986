package merge_test

import (
	"context"
	"testing"

	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/nodes/merge"
	"github.com/aretw0/spindle/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_RawInput(t *testing.T) {
	n, err := merge.New("merge", domain.DefaultNodeConfig())
	require.NoError(t, err)

	out, err := n.Call(context.Background(), map[string]any{
		"a": map[string]any{"x": 1},
		"b": map[string]any{"y": "z"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out.Keys())
	assert.Equal(t, map[string]any{
		"a": map[string]any{"x": 1},
		"b": map[string]any{"y": "z"},
	}, out.Dump())
}

func TestMerge_NewShapeEachCall(t *testing.T) {
	n, err := merge.New("merge", domain.DefaultNodeConfig())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = n.Call(ctx, map[string]any{"a": map[string]any{"x": 1}, "b": map[string]any{"y": "z"}})
	require.NoError(t, err)
	first := n.OutputShape()

	out, err := n.Call(ctx, map[string]any{"a": "text", "c": 3.5, "d": []any{1, 2}})
	require.NoError(t, err)
	second := n.OutputShape()

	assert.NotSame(t, first, second)
	assert.Equal(t, map[string]string{"a": "string", "c": "number", "d": "list"}, second.TypeMap())
	v, _ := out.Get("c")
	assert.Equal(t, 3.5, v)

	cached, err := n.Output()
	require.NoError(t, err)
	assert.True(t, cached.Equal(out))
}

func TestMerge_PredecessorRecords(t *testing.T) {
	ans := schema.NewShape("llm", schema.Field{Name: "output", Type: schema.String()})
	a, err := ans.Coerce(map[string]any{"output": "first"})
	require.NoError(t, err)
	b, err := ans.Coerce(map[string]any{"output": "second"})
	require.NoError(t, err)

	n, err := merge.New("merge", domain.DefaultNodeConfig())
	require.NoError(t, err)

	out, err := n.Call(context.Background(), map[string]schema.Record{"llm_1": a, "llm_2": b})
	require.NoError(t, err)

	assert.Equal(t, []string{"llm_1", "llm_2"}, out.Keys())
	assert.Equal(t, map[string]any{
		"llm_1": map[string]any{"output": "first"},
		"llm_2": map[string]any{"output": "second"},
	}, out.Dump())

	typ, ok := n.OutputShape().Field("llm_1")
	require.True(t, ok)
	assert.Same(t, ans, typ)
}

func TestMerge_Descriptor(t *testing.T) {
	assert.Equal(t, "Merge", merge.Descriptor.DisplayName)
	assert.Equal(t, "MN", merge.Descriptor.VisualTag.Acronym)
}
