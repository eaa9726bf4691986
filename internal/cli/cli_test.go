package cli

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/spindle/internal/config"
	"github.com/aretw0/spindle/internal/logging"
	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInputs(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "in.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"query":"from file","k":1}`), 0o644))

	in, err := InputSanitizer{}.ParseInputs(file, []string{"query=override", "k=3", "t=0.5", "ok=true", "eq=a=b"})
	require.NoError(t, err)
	assert.Equal(t, "override", in["query"])
	assert.Equal(t, 3, in["k"])
	assert.Equal(t, 0.5, in["t"])
	assert.Equal(t, true, in["ok"])
	assert.Equal(t, "a=b", in["eq"])

	_, err = InputSanitizer{}.ParseInputs("", []string{"novalue"})
	assert.Error(t, err)
}

func TestInputSanitizer_Clean(t *testing.T) {
	var s InputSanitizer
	out, err := s.Clean("hi\x1b[31m\tthere\x00\r\n")
	require.NoError(t, err)
	assert.Equal(t, "hi[31m\tthere\r\n", out)

	_, err = s.Clean("\xff")
	assert.ErrorIs(t, err, ErrInvalidUTF8)

	_, err = s.Clean(strings.Repeat("a", DefaultMaxInputSize+1))
	assert.ErrorIs(t, err, ErrInputTooLarge)

	small := InputSanitizer{MaxSize: 4}
	_, err = small.Clean("12345")
	assert.ErrorIs(t, err, ErrInputTooLarge)

	_, err = small.ParseInputs("", []string{"q=12345"})
	assert.ErrorIs(t, err, ErrInputTooLarge)
}

func TestNewApp_InputLimitFromConfig(t *testing.T) {
	cfg := &config.Config{RunStore: config.StoreMemory, Retrieval: config.RetrievalMemory, MaxInputSize: 3}
	app, err := NewApp(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	defer app.Close()

	_, err = app.Inputs.ParseInputs("", []string{"q=abcd"})
	assert.ErrorIs(t, err, ErrInputTooLarge)
	in, err := app.Inputs.ParseInputs("", []string{"q=abc"})
	require.NoError(t, err)
	assert.Equal(t, "abc", in["q"])
}

func TestNewApp_Memory(t *testing.T) {
	cfg := &config.Config{RunStore: config.StoreMemory, Retrieval: config.RetrievalMemory}
	app, err := NewApp(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	defer app.Close()

	def := &workflow.Definition{
		ID: "wf",
		Nodes: []workflow.NodeDef{
			{ID: "start", Type: "input_node", Config: domain.NodeConfig{OutputSchema: map[string]string{"query": "string"}}},
			{ID: "join", Type: "merge_node"},
		},
		Links: []workflow.Link{{Source: "start", Target: "join"}},
	}
	res, err := app.Engine.Run(context.Background(), def, map[string]any{"query": "hi"})
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, res.Status)

	families, err := app.Gatherer.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	list, err := app.Datasets.ListDatasets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestNewApp_FileStoreOutlivesApp(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{RunStore: config.StoreFile, RunsDir: dir, Retrieval: config.RetrievalMemory}
	def := &workflow.Definition{ID: "wf", Nodes: []workflow.NodeDef{{ID: "join", Type: "merge_node"}}}

	app, err := NewApp(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	res, err := app.Engine.Run(context.Background(), def, map[string]any{"a": "b"})
	require.NoError(t, err)
	require.NoError(t, app.Close())

	again, err := NewApp(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	defer again.Close()
	run, err := again.Engine.Store().LoadRun(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, run.Status)
}

func TestNewApp_PostgresNeedsEmbedder(t *testing.T) {
	cfg := &config.Config{RunStore: config.StoreMemory, Retrieval: config.RetrievalPostgres}
	_, err := NewApp(context.Background(), cfg, logging.NewNop())
	assert.ErrorContains(t, err, "OPENAI_API_KEY")
}

func TestDebugHooks(t *testing.T) {
	var buf bytes.Buffer
	hooks := DebugHooks(logging.NewWithFormat(&buf, slog.LevelDebug, logging.FormatText))
	hooks.OnNodeStart(context.Background(), &domain.NodeEvent{RunID: "r", NodeID: "n"})
	hooks.OnNodeFinish(context.Background(), &domain.NodeEvent{RunID: "r", NodeID: "n", Status: domain.TaskCompleted})
	assert.Contains(t, buf.String(), "node started")
	assert.Contains(t, buf.String(), "status=COMPLETED")
}

func TestSignalContext_Stop(t *testing.T) {
	sc := NewSignalContext(context.Background())
	sc.Stop()
	<-sc.Done()
	assert.Nil(t, sc.Signal())
	assert.ErrorIs(t, context.Cause(sc), context.Canceled)
}
