package workflow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type knownTypes map[string]bool

func (k knownTypes) Has(name string) bool { return k[name] }

var types = knownTypes{"input_node": true, "merge_node": true}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		def     Definition
		wantErr string
	}{
		{
			name: "valid",
			def: Definition{
				Nodes: []NodeDef{{ID: "a", Type: "input_node"}, {ID: "b", Type: "merge_node"}},
				Links: []Link{{Source: "a", Target: "b"}},
			},
		},
		{name: "empty", def: Definition{}, wantErr: "no nodes"},
		{
			name:    "duplicate id",
			def:     Definition{Nodes: []NodeDef{{ID: "a", Type: "input_node"}, {ID: "a", Type: "merge_node"}}},
			wantErr: `duplicate node id "a"`,
		},
		{
			name:    "unknown type",
			def:     Definition{Nodes: []NodeDef{{ID: "a", Type: "teleport"}}},
			wantErr: `unknown type "teleport"`,
		},
		{
			name: "dangling link",
			def: Definition{
				Nodes: []NodeDef{{ID: "a", Type: "input_node"}},
				Links: []Link{{Source: "a", Target: "ghost"}},
			},
			wantErr: `link target "ghost"`,
		},
		{
			name: "self link",
			def: Definition{
				Nodes: []NodeDef{{ID: "a", Type: "merge_node"}},
				Links: []Link{{Source: "a", Target: "a"}},
			},
			wantErr: "links to itself",
		},
		{
			name: "cycle",
			def: Definition{
				Nodes: []NodeDef{{ID: "a", Type: "merge_node"}, {ID: "b", Type: "merge_node"}, {ID: "c", Type: "merge_node"}},
				Links: []Link{{Source: "a", Target: "b"}, {Source: "b", Target: "c"}, {Source: "c", Target: "b"}},
			},
			wantErr: "cycle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.def, types)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidWorkflow)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLayers(t *testing.T) {
	def := Definition{
		Nodes: []NodeDef{{ID: "in"}, {ID: "left"}, {ID: "right"}, {ID: "join"}},
		Links: []Link{
			{Source: "in", Target: "right"},
			{Source: "in", Target: "left"},
			{Source: "left", Target: "join"},
			{Source: "right", Target: "join"},
			{Source: "right", Target: "join"},
		},
	}

	layers, err := def.Layers()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"in"}, {"left", "right"}, {"join"}}, layers)
	assert.Equal(t, []string{"left", "right"}, def.Predecessors("join"))
	assert.Equal(t, []string{"join"}, def.Sinks())
}

const sampleYAML = `
id: wf-1
name: Ask
nodes:
  - id: start
    node_type: input_node
    config:
      output_schema:
        query: string
  - id: merge
    node_type: merge_node
    title: Merge everything
links:
  - source_id: start
    target_id: merge
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	def, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "wf-1", def.ID)
	require.Len(t, def.Nodes, 2)
	assert.Equal(t, map[string]string{"query": "string"}, def.Nodes[0].Config.OutputSchema)
	assert.Equal(t, "Merge everything", def.Nodes[1].Title)
	assert.NoError(t, Validate(def, types))

	jsonPath := filepath.Join(dir, "wf.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{
		"id": "wf-2",
		"nodes": [{"id": "m", "node_type": "merge_node", "config": {"params": {"k": 1}}}],
		"links": []
	}`), 0o644))

	def, err = Load(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "wf-2", def.ID)
	assert.EqualValues(t, 1, def.Nodes[0].Config.Params["k"])

	require.NoError(t, os.WriteFile(path, []byte("id: x\nbogus: 1\n"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}
