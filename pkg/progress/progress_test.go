package progress_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/progress"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finished(status domain.TaskStatus, err error) *domain.NodeEvent {
	return &domain.NodeEvent{
		Type: domain.EventNodeFinish, RunID: "r1", NodeID: "search", NodeType: "retriever_node",
		Status: status, Duration: 1500 * time.Millisecond, Err: err,
	}
}

func TestJSONHandler(t *testing.T) {
	var buf bytes.Buffer
	h := progress.NewJSONHandler(&buf)

	require.NoError(t, h.Handle(context.Background(), &domain.NodeEvent{Type: domain.EventNodeStart, RunID: "r1", NodeID: "search"}))
	require.NoError(t, h.Handle(context.Background(), finished(domain.TaskFailed, errors.New("index not ready"))))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var last map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &last))
	assert.Equal(t, "node_finish", last["type"])
	assert.Equal(t, "FAILED", last["status"])
	assert.Equal(t, "index not ready", last["error"])
	assert.Equal(t, float64(1500), last["duration_ms"])
}

func TestTextHandler_Ascii(t *testing.T) {
	var buf bytes.Buffer
	h := progress.NewTextHandler(&buf, termenv.Ascii)

	require.NoError(t, h.Handle(context.Background(), &domain.NodeEvent{Type: domain.EventNodeStart, NodeID: "search", NodeType: "retriever_node"}))
	require.NoError(t, h.Handle(context.Background(), finished(domain.TaskFailed, errors.New("boom"))))

	assert.Equal(t, "▶ search (retriever_node)\n■ search FAILED in 1.5s: boom\n", buf.String())
}

func TestHooks_SerializesAndReportsErrors(t *testing.T) {
	var (
		mu      sync.Mutex
		active  int
		overlap bool
		errs    []error
	)
	h := progress.HandlerFunc(func(ctx context.Context, e *domain.NodeEvent) error {
		mu.Lock()
		active++
		if active > 1 {
			overlap = true
		}
		mu.Unlock()
		time.Sleep(time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
		return errors.New("sink closed")
	})

	hooks := progress.Hooks(h, func(err error) {
		mu.Lock()
		defer mu.Unlock()
		errs = append(errs, err)
	})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hooks.OnNodeFinish(context.Background(), finished(domain.TaskCompleted, nil))
		}()
	}
	wg.Wait()

	assert.False(t, overlap)
	assert.Len(t, errs, 5)
}

func TestCombine(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{OnNodeStart: func(context.Context, *domain.NodeEvent) { calls = append(calls, "a") }}
	b := domain.LifecycleHooks{
		OnNodeStart:  func(context.Context, *domain.NodeEvent) { calls = append(calls, "b") },
		OnNodeFinish: func(context.Context, *domain.NodeEvent) { calls = append(calls, "b-finish") },
	}

	hooks := progress.Combine(a, b)
	hooks.OnNodeStart(context.Background(), &domain.NodeEvent{})
	hooks.OnNodeFinish(context.Background(), &domain.NodeEvent{})
	assert.Equal(t, []string{"a", "b", "b-finish"}, calls)

	assert.Nil(t, progress.Combine().OnNodeStart)
}
