package memory

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/aretw0/spindle/pkg/domain"
)

// RunStore implements ports.RunStore in memory.
// Safe for concurrent use.
type RunStore struct {
	mu    sync.RWMutex
	runs  map[string]*domain.RunRecord
	tasks map[string]map[string]*domain.TaskRecord
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		runs:  make(map[string]*domain.RunRecord),
		tasks: make(map[string]map[string]*domain.TaskRecord),
	}
}

// SaveRun persists the run in memory.
func (s *RunStore) SaveRun(ctx context.Context, run *domain.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = copyRun(run)
	return nil
}

// LoadRun retrieves the run from memory.
func (s *RunStore) LoadRun(ctx context.Context, runID string) (*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	// Copy on read so callers can't mutate store state by pointer
	return copyRun(run), nil
}

// ListRuns returns the runs of a workflow, most recent first.
func (s *RunStore) ListRuns(ctx context.Context, workflowID string) ([]*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]*domain.RunRecord, 0, len(s.runs))
	for _, r := range s.runs {
		if workflowID != "" && r.WorkflowID != workflowID {
			continue
		}
		runs = append(runs, copyRun(r))
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartTime.After(runs[j].StartTime)
	})
	return runs, nil
}

// SaveTask persists a task record.
func (s *RunStore) SaveTask(ctx context.Context, task *domain.TaskRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byNode, ok := s.tasks[task.RunID]
	if !ok {
		byNode = make(map[string]*domain.TaskRecord)
		s.tasks[task.RunID] = byNode
	}
	byNode[task.NodeID] = copyTask(task)
	return nil
}

// ListTasks returns the task records of a run ordered by node id.
func (s *RunStore) ListTasks(ctx context.Context, runID string) ([]*domain.TaskRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]*domain.TaskRecord, 0, len(s.tasks[runID]))
	for _, t := range s.tasks[runID] {
		tasks = append(tasks, copyTask(t))
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].NodeID < tasks[j].NodeID })
	return tasks, nil
}

// DeleteRun removes a run and its tasks.
func (s *RunStore) DeleteRun(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runs, runID)
	delete(s.tasks, runID)
	return nil
}

func copyRun(r *domain.RunRecord) *domain.RunRecord {
	c := *r
	c.Inputs = maps.Clone(r.Inputs)
	c.Outputs = maps.Clone(r.Outputs)
	if r.EndTime != nil {
		end := *r.EndTime
		c.EndTime = &end
	}
	return &c
}

func copyTask(t *domain.TaskRecord) *domain.TaskRecord {
	c := *t
	c.Inputs = maps.Clone(t.Inputs)
	c.Outputs = maps.Clone(t.Outputs)
	return &c
}
