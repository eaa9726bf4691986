// Package file stores run and task records as JSON files on the local filesystem.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/spindle/pkg/domain"
)

// DefaultPath is used when New receives an empty base path.
var DefaultPath = filepath.Join(".spindle", "runs")

// ErrInvalidID is returned for ids that cannot name a file.
var ErrInvalidID = errors.New("invalid record id")

// RunStore implements ports.RunStore using the local filesystem.
//
// Layout:
//
//	<base>/<run id>/run.json
//	<base>/<run id>/tasks/<node id>.json
type RunStore struct {
	BasePath string

	mu sync.Mutex
}

// New creates a RunStore rooted at basePath.
func New(basePath string) *RunStore {
	if basePath == "" {
		basePath = DefaultPath
	}
	return &RunStore{BasePath: basePath}
}

func (s *RunStore) runDir(runID string) (string, error) {
	if runID == "" || runID == "." || runID == ".." || strings.ContainsAny(runID, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, runID)
	}
	return filepath.Join(s.BasePath, runID), nil
}

// SaveRun writes run.json atomically.
func (s *RunStore) SaveRun(ctx context.Context, run *domain.RunRecord) error {
	dir, err := s.runDir(run.ID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(dir, "run.json", run)
}

// LoadRun reads run.json.
func (s *RunStore) LoadRun(ctx context.Context, runID string) (*domain.RunRecord, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return nil, err
	}
	var run domain.RunRecord
	if err := readJSON(filepath.Join(dir, "run.json"), &run); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrRunNotFound
		}
		return nil, err
	}
	return &run, nil
}

// ListRuns scans the base directory, most recent first.
func (s *RunStore) ListRuns(ctx context.Context, workflowID string) ([]*domain.RunRecord, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*domain.RunRecord{}, nil
		}
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	runs := make([]*domain.RunRecord, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		run, err := s.LoadRun(ctx, entry.Name())
		if err != nil {
			// Directories without a readable run.json are not runs.
			continue
		}
		if workflowID != "" && run.WorkflowID != workflowID {
			continue
		}
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartTime.After(runs[j].StartTime)
	})
	return runs, nil
}

// SaveTask writes the task file atomically.
func (s *RunStore) SaveTask(ctx context.Context, task *domain.TaskRecord) error {
	dir, err := s.runDir(task.RunID)
	if err != nil {
		return err
	}
	if task.NodeID == "" {
		return fmt.Errorf("%w: empty node id", ErrInvalidID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(filepath.Join(dir, "tasks"), url.PathEscape(task.NodeID)+".json", task)
}

// ListTasks returns the task records of a run ordered by node id.
func (s *RunStore) ListTasks(ctx context.Context, runID string) ([]*domain.TaskRecord, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(dir, "tasks"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*domain.TaskRecord{}, nil
		}
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]*domain.TaskRecord, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" || strings.HasPrefix(entry.Name(), "tmp-") {
			continue
		}
		var task domain.TaskRecord
		if err := readJSON(filepath.Join(dir, "tasks", entry.Name()), &task); err != nil {
			return nil, err
		}
		tasks = append(tasks, &task)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].NodeID < tasks[j].NodeID })
	return tasks, nil
}

// DeleteRun removes the run directory.
func (s *RunStore) DeleteRun(ctx context.Context, runID string) error {
	dir, err := s.runDir(runID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeJSON writes to a temp file in dir, syncs it and renames it over name.
func writeJSON(dir, name string, v any) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to ensure directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	// Same directory keeps the rename on one filesystem.
	tmpFile, err := os.CreateTemp(dir, "tmp-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	dest := filepath.Join(dir, name)
	// Windows refuses to rename over an existing file.
	if _, err := os.Stat(dest); err == nil {
		if err := os.Remove(dest); err != nil {
			return fmt.Errorf("failed to replace %s: %w", name, err)
		}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
