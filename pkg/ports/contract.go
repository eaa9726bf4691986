package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/spindle/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRunStoreContract runs a suite of tests to verify that a RunStore implementation
// adheres to the defined interface contract.
func RunRunStoreContract(t *testing.T, store RunStore) {
	ctx := context.Background()
	runID := "contract-run-" + time.Now().Format("20060102150405.000000")

	t.Run("Save and Load", func(t *testing.T) {
		run := &domain.RunRecord{
			ID:         runID,
			WorkflowID: "wf-contract",
			Status:     domain.RunRunning,
			Inputs:     map[string]any{"query": "hello"},
			StartTime:  time.Now().UTC().Truncate(time.Millisecond),
		}
		require.NoError(t, store.SaveRun(ctx, run), "SaveRun should not return error")

		loaded, err := store.LoadRun(ctx, runID)
		require.NoError(t, err, "LoadRun should not return error")
		assert.Equal(t, run.WorkflowID, loaded.WorkflowID)
		assert.Equal(t, domain.RunRunning, loaded.Status)
		assert.Equal(t, "hello", loaded.Inputs["query"])
		assert.True(t, run.StartTime.Equal(loaded.StartTime))

		run.Status = domain.RunCompleted
		require.NoError(t, store.SaveRun(ctx, run))
		loaded, err = store.LoadRun(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, domain.RunCompleted, loaded.Status)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.LoadRun(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Tasks", func(t *testing.T) {
		for _, id := range []string{"b", "a"} {
			require.NoError(t, store.SaveTask(ctx, &domain.TaskRecord{
				RunID: runID, NodeID: id, NodeType: "merge_node", Status: domain.TaskRunning,
			}))
		}
		require.NoError(t, store.SaveTask(ctx, &domain.TaskRecord{
			RunID: runID, NodeID: "a", NodeType: "merge_node", Status: domain.TaskCompleted,
			Outputs: map[string]any{"output": "x"},
		}))

		tasks, err := store.ListTasks(ctx, runID)
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, "a", tasks[0].NodeID)
		assert.Equal(t, domain.TaskCompleted, tasks[0].Status)
		assert.Equal(t, "x", tasks[0].Outputs["output"])
		assert.Equal(t, "b", tasks[1].NodeID)
	})

	t.Run("List", func(t *testing.T) {
		other := runID + "-other"
		require.NoError(t, store.SaveRun(ctx, &domain.RunRecord{
			ID: other, WorkflowID: "wf-other", Status: domain.RunPending, StartTime: time.Now().UTC(),
		}))
		defer func() { _ = store.DeleteRun(ctx, other) }()

		runs, err := store.ListRuns(ctx, "wf-contract")
		require.NoError(t, err)
		ids := make([]string, 0, len(runs))
		for _, r := range runs {
			ids = append(ids, r.ID)
		}
		assert.Contains(t, ids, runID)
		assert.NotContains(t, ids, other)

		all, err := store.ListRuns(ctx, "")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(all), 2)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.DeleteRun(ctx, runID), "DeleteRun should not return error")

		_, err := store.LoadRun(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "LoadRun after DeleteRun should return ErrRunNotFound")

		tasks, err := store.ListTasks(ctx, runID)
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})
}

// RunIndexRegistryContract verifies an IndexRegistry implementation.
// readyID must name an existing index in the ready state.
func RunIndexRegistryContract(t *testing.T, registry IndexRegistry, readyID string) {
	ctx := context.Background()

	t.Run("Get Existing", func(t *testing.T) {
		sess, err := registry.Acquire(ctx)
		require.NoError(t, err)
		defer sess.Release()

		idx, err := sess.GetIndex(ctx, readyID)
		require.NoError(t, err)
		assert.Equal(t, readyID, idx.ID)
		assert.Equal(t, domain.IndexReady, idx.Status)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		sess, err := registry.Acquire(ctx)
		require.NoError(t, err)
		defer sess.Release()

		_, err = sess.GetIndex(ctx, "non-existent-"+readyID)
		assert.ErrorIs(t, err, domain.ErrIndexNotFound)
	})

	t.Run("Release Twice", func(t *testing.T) {
		sess, err := registry.Acquire(ctx)
		require.NoError(t, err)
		sess.Release()
		assert.NotPanics(t, sess.Release)
	})
}
