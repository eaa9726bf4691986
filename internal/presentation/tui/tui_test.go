package tui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/schema"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReport(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	end := start.Add(1500 * time.Millisecond)
	taskEnd := start.Add(2 * time.Millisecond)

	run := &domain.RunRecord{
		ID: "r1", WorkflowID: "rag", Status: domain.RunCompleted,
		StartTime: start, EndTime: &end,
		Outputs: map[string]any{"answer": map[string]any{"output": "42"}},
	}
	tasks := []*domain.TaskRecord{
		{NodeID: "answer", NodeType: "single_llm_call", Status: domain.TaskCompleted, StartTime: &start, EndTime: &taskEnd},
		{NodeID: "start", NodeType: "input_node", Status: domain.TaskFailed},
	}

	md := RunReport(run, tasks)
	assert.Contains(t, md, "# Run `r1`")
	assert.Contains(t, md, "**Duration:** 1.5s")
	assert.Contains(t, md, "| answer | single_llm_call | ✅ COMPLETED | 2ms |")
	assert.Contains(t, md, "| start | input_node | ❌ FAILED | - |")
	assert.Contains(t, md, "### answer")
	assert.Contains(t, md, `"output": "42"`)
}

func TestRunReport_Error(t *testing.T) {
	md := RunReport(&domain.RunRecord{ID: "r", Status: domain.RunFailed, Error: "boom"}, nil)
	assert.Contains(t, md, "> **Error:** boom")
	assert.NotContains(t, md, "## Tasks")
}

func TestTag_AsciiProfile(t *testing.T) {
	tag := domain.DefaultVisualTag("merge_node")
	assert.Equal(t, " MN ", Tag(tag, termenv.Ascii))
}

func TestPrintNodeTypes(t *testing.T) {
	descs := []domain.NodeTypeDescriptor{
		domain.NodeTypeDescriptor{
			Name:        "retriever_node",
			Category:    domain.CategoryLLM,
			InputShape:  schema.NewShape("RetrieverInput", schema.Field{Name: "query", Type: schema.String()}),
			OutputShape: nil,
		}.WithDefaults(),
	}

	var buf bytes.Buffer
	require.NoError(t, PrintNodeTypes(&buf, descs, termenv.Ascii))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "TYPE")
	assert.Contains(t, lines[1], " RN ")
	assert.Contains(t, lines[1], "retriever_node")
	assert.Contains(t, lines[1], "query")
	assert.Contains(t, lines[1], "(config)")
}

func TestNewRenderer_Plain(t *testing.T) {
	out, err := NewRenderer(false)("# hi")
	require.NoError(t, err)
	assert.Equal(t, "# hi", out)
}

func TestPrintBanner_Ascii(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, termenv.Ascii)
	assert.Contains(t, buf.String(), "|___/ .__/")
	assert.NotContains(t, buf.String(), "\x1b[")
}
