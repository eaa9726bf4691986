package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/spindle/pkg/adapters/file"
	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStore_Contract(t *testing.T) {
	ports.RunRunStoreContract(t, file.New(t.TempDir()))
}

func TestRunStore_Layout(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	require.NoError(t, store.SaveRun(ctx, &domain.RunRecord{ID: "r1", WorkflowID: "wf", StartTime: time.Now()}))
	require.NoError(t, store.SaveTask(ctx, &domain.TaskRecord{RunID: "r1", NodeID: "a/b", Status: domain.TaskCompleted}))

	assert.FileExists(t, filepath.Join(dir, "r1", "run.json"))
	assert.FileExists(t, filepath.Join(dir, "r1", "tasks", "a%2Fb.json"))

	tasks, err := store.ListTasks(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "a/b", tasks[0].NodeID)

	entries, err := os.ReadDir(filepath.Join(dir, "r1", "tasks"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not survive a save")
}

func TestRunStore_RejectsPathIDs(t *testing.T) {
	store := file.New(t.TempDir())
	err := store.SaveRun(context.Background(), &domain.RunRecord{ID: "../escape"})
	assert.ErrorIs(t, err, file.ErrInvalidID)

	_, err = store.LoadRun(context.Background(), "")
	assert.ErrorIs(t, err, file.ErrInvalidID)
}

func TestRunStore_ListSkipsForeignDirs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "junk"), 0o755))

	store := file.New(dir)
	ctx := context.Background()
	older := time.Now().Add(-time.Hour)
	require.NoError(t, store.SaveRun(ctx, &domain.RunRecord{ID: "old", WorkflowID: "wf", StartTime: older}))
	require.NoError(t, store.SaveRun(ctx, &domain.RunRecord{ID: "new", WorkflowID: "wf", StartTime: time.Now()}))

	runs, err := store.ListRuns(ctx, "wf")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].ID)
	assert.Equal(t, "old", runs[1].ID)
}

func TestRunStore_MissingBase(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "absent"))
	runs, err := store.ListRuns(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, runs)
}
