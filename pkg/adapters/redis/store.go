package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aretw0/spindle/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// RunStore implements ports.RunStore using Redis.
//
// A run is a JSON string key, its tasks a hash keyed by node id. Runs are
// indexed in sorted sets scored by start time, one global and one per workflow.
type RunStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*RunStore)

// WithTTL sets the expiration for runs and their tasks.
func WithTTL(ttl time.Duration) Option {
	return func(s *RunStore) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *RunStore) {
		s.prefix = prefix
	}
}

// New creates a new Redis run store with options.
func New(address, password string, db int, opts ...Option) *RunStore {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis run store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *RunStore {
	store := &RunStore{
		client: client,
		prefix: "spindle:",
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *RunStore) runKey(runID string) string {
	return s.prefix + "run:" + runID
}

func (s *RunStore) tasksKey(runID string) string {
	return s.prefix + "run:" + runID + ":tasks"
}

func (s *RunStore) indexKey(workflowID string) string {
	if workflowID == "" {
		return s.prefix + "runs"
	}
	return s.prefix + "runs:" + workflowID
}

// SaveRun persists the run to Redis.
func (s *RunStore) SaveRun(ctx context.Context, run *domain.RunRecord) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	score := float64(run.StartTime.UnixMilli())
	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.runKey(run.ID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(""), backend.Z{Score: score, Member: run.ID})
	pipe.ZAdd(ctx, s.indexKey(run.WorkflowID), backend.Z{Score: score, Member: run.ID})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save run to redis: %w", err)
	}
	return nil
}

// LoadRun retrieves the run from Redis.
func (s *RunStore) LoadRun(ctx context.Context, runID string) (*domain.RunRecord, error) {
	val, err := s.client.Get(ctx, s.runKey(runID)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get run from redis: %w", err)
	}

	var run domain.RunRecord
	if err := json.Unmarshal([]byte(val), &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}
	return &run, nil
}

// ListRuns returns the runs of a workflow, most recent first.
// Index entries whose run expired are pruned lazily.
func (s *RunStore) ListRuns(ctx context.Context, workflowID string) ([]*domain.RunRecord, error) {
	index := s.indexKey(workflowID)
	ids, err := s.client.ZRevRange(ctx, index, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.runKey(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load runs: %w", err)
	}

	var (
		runs  []*domain.RunRecord
		stale []any
	)
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		var run domain.RunRecord
		if err := json.Unmarshal([]byte(str), &run); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run %s: %w", ids[i], err)
		}
		runs = append(runs, &run)
	}

	if len(stale) > 0 {
		if err := s.client.ZRem(ctx, index, stale...).Err(); err != nil {
			return nil, fmt.Errorf("failed to prune expired runs: %w", err)
		}
	}
	return runs, nil
}

// SaveTask persists a task record in the run's task hash.
func (s *RunStore) SaveTask(ctx context.Context, task *domain.TaskRecord) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	key := s.tasksKey(task.RunID)
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, task.NodeID, data)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save task to redis: %w", err)
	}
	return nil
}

// ListTasks returns the task records of a run ordered by node id.
func (s *RunStore) ListTasks(ctx context.Context, runID string) ([]*domain.TaskRecord, error) {
	fields, err := s.client.HGetAll(ctx, s.tasksKey(runID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]*domain.TaskRecord, 0, len(fields))
	for nodeID, val := range fields {
		var task domain.TaskRecord
		if err := json.Unmarshal([]byte(val), &task); err != nil {
			return nil, fmt.Errorf("failed to unmarshal task %s: %w", nodeID, err)
		}
		tasks = append(tasks, &task)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].NodeID < tasks[j].NodeID })
	return tasks, nil
}

// DeleteRun removes the run, its tasks and its index entries.
func (s *RunStore) DeleteRun(ctx context.Context, runID string) error {
	run, err := s.LoadRun(ctx, runID)
	if err != nil && !errors.Is(err, domain.ErrRunNotFound) {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.runKey(runID), s.tasksKey(runID))
	pipe.ZRem(ctx, s.indexKey(""), runID)
	if run != nil {
		pipe.ZRem(ctx, s.indexKey(run.WorkflowID), runID)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Close closes the redis client.
func (s *RunStore) Close() error {
	return s.client.Close()
}
