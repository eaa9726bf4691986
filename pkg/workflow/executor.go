package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/spindle/internal/logging"
	"github.com/aretw0/spindle/pkg/adapters/memory"
	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/node"
	"github.com/aretw0/spindle/pkg/observability"
	"github.com/aretw0/spindle/pkg/ports"
	"github.com/aretw0/spindle/pkg/registry"
	"github.com/aretw0/spindle/pkg/schema"
	"github.com/aretw0/spindle/pkg/session"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrPaused is the cancellation cause that pauses a run instead of canceling it.
	// Use context.WithCancelCause and call cancel(ErrPaused).
	ErrPaused = errors.New("run paused")
	// ErrNotResumable is returned when resuming a completed run.
	ErrNotResumable = errors.New("run is not resumable")
)

// Result is the outcome of a run.
type Result struct {
	RunID  string
	Status domain.RunStatus
	// Outputs holds the validated output of every node that completed, keyed by node id.
	Outputs map[string]schema.Record
	// Sinks are the ids of nodes without successors.
	Sinks []string
}

// Output returns the output of one node.
func (r *Result) Output(nodeID string) (schema.Record, bool) {
	rec, ok := r.Outputs[nodeID]
	return rec, ok
}

// Executor runs workflow definitions layer by layer.
// Independent nodes of a layer run concurrently; a node instance is never
// invoked twice in the same run.
type Executor struct {
	registry    *registry.Registry
	store       ports.RunStore
	locker      ports.DistributedLocker
	lockTTL     time.Duration
	sessions    *session.Manager
	metrics     *observability.Metrics
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	concurrency int
	newID       func() string
}

// Option defines a functional option for configuring the Executor.
type Option func(*Executor)

// WithRunStore sets where run and task status is recorded (default: in memory).
func WithRunStore(s ports.RunStore) Option {
	return func(e *Executor) {
		e.store = s
	}
}

// WithLocker guards each run id with a distributed lock while it executes.
func WithLocker(l ports.DistributedLocker, ttl time.Duration) Option {
	return func(e *Executor) {
		e.locker = l
		e.lockTTL = ttl
	}
}

// WithMetrics records run metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Executor) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithConcurrency bounds the number of nodes running at once within a layer.
// Zero or less means unbounded.
func WithConcurrency(n int) Option {
	return func(e *Executor) {
		e.concurrency = n
	}
}

// WithIDGenerator overrides run id generation.
func WithIDGenerator(fn func() string) Option {
	return func(e *Executor) {
		e.newID = fn
	}
}

// NewExecutor creates an executor building nodes from reg.
func NewExecutor(reg *registry.Registry, opts ...Option) *Executor {
	e := &Executor{
		registry: reg,
		store:    memory.NewRunStore(),
		lockTTL:  session.DefaultTTL,
		logger:   logging.NewNop(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	sopts := []session.Option{session.WithLogger(e.logger)}
	if e.locker != nil {
		sopts = append(sopts, session.WithLocker(e.locker, e.lockTTL))
	}
	e.sessions = session.NewManager(sopts...)
	return e
}

// Store returns the run store of the executor.
func (e *Executor) Store() ports.RunStore { return e.store }

// Run validates def and executes it. Root nodes receive inputs as a raw
// mapping, other nodes a mapping of predecessor id -> predecessor output.
//
// A node failure fails the run and is returned as the error, together with
// the partial result. Canceling ctx with cause ErrPaused pauses the run, which
// is then reported through Result.Status with a nil error.
func (e *Executor) Run(ctx context.Context, def *Definition, inputs map[string]any) (*Result, error) {
	if err := Validate(def, e.registry); err != nil {
		return nil, err
	}

	run := &domain.RunRecord{
		ID:         e.newID(),
		WorkflowID: def.ID,
		Status:     domain.RunPending,
		Inputs:     inputs,
		StartTime:  time.Now().UTC(),
	}

	var res *Result
	err := e.withRunLock(ctx, run.ID, func(ctx context.Context) error {
		if err := e.store.SaveRun(ctx, run); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		var err error
		res, err = e.execute(ctx, def, run, nil)
		return err
	})
	return res, err
}

// Resume continues a paused, failed or interrupted run. Nodes that completed
// keep their recorded outputs and are not invoked again.
func (e *Executor) Resume(ctx context.Context, runID string, def *Definition) (*Result, error) {
	if err := Validate(def, e.registry); err != nil {
		return nil, err
	}

	var res *Result
	err := e.withRunLock(ctx, runID, func(ctx context.Context) error {
		var err error
		res, err = e.resume(ctx, runID, def)
		return err
	})
	return res, err
}

func (e *Executor) resume(ctx context.Context, runID string, def *Definition) (*Result, error) {
	run, err := e.store.LoadRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.Status == domain.RunCompleted {
		return nil, fmt.Errorf("%w: run %s is %s", ErrNotResumable, runID, run.Status)
	}
	if run.WorkflowID != def.ID {
		return nil, fmt.Errorf("%w: run %s belongs to workflow %q, not %q", ErrNotResumable, runID, run.WorkflowID, def.ID)
	}

	tasks, err := e.store.ListTasks(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	completed := make(map[string]schema.Record)
	for _, t := range tasks {
		if t.Status != domain.TaskCompleted {
			continue
		}
		if _, ok := def.Node(t.NodeID); !ok {
			continue
		}
		rec, err := rehydrate(t.NodeID, t.Outputs)
		if err != nil {
			return nil, fmt.Errorf("restore output of %s: %w", t.NodeID, err)
		}
		completed[t.NodeID] = rec
	}

	e.logger.Info("resuming run", "run_id", runID, "completed_nodes", len(completed))
	run.Error = ""
	run.EndTime = nil
	return e.execute(ctx, def, run, completed)
}

// withRunLock holds the run lock for the duration of fn.
func (e *Executor) withRunLock(ctx context.Context, runID string, fn func(context.Context) error) error {
	return e.sessions.WithLock(ctx, "run:"+runID, fn)
}

type runState struct {
	mu      sync.Mutex
	outputs map[string]schema.Record
}

func (s *runState) get(id string) (schema.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.outputs[id]
	return rec, ok
}

func (s *runState) set(id string, rec schema.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputs[id] = rec
}

func (e *Executor) execute(ctx context.Context, def *Definition, run *domain.RunRecord, completed map[string]schema.Record) (*Result, error) {
	log := e.logger.With("run_id", run.ID, "workflow", def.ID)
	start := time.Now()

	layers, err := def.Layers()
	if err != nil {
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.RunStarted()
	}

	nodes := make(map[string]node.Node, len(def.Nodes))
	for _, nd := range def.Nodes {
		n, err := e.registry.New(nd.Type, nd.ID, nd.Config)
		if err != nil {
			return e.finish(ctx, log, run, def, nil, start, domain.RunFailed, err)
		}
		nodes[nd.ID] = n
	}

	state := &runState{outputs: make(map[string]schema.Record, len(def.Nodes))}
	for id, rec := range completed {
		state.outputs[id] = rec
	}

	run.Status = domain.RunRunning
	if err := e.store.SaveRun(ctx, run); err != nil {
		return e.finish(ctx, log, run, def, state, start, domain.RunFailed, fmt.Errorf("save run: %w", err))
	}
	log.Info("run started", "nodes", len(def.Nodes), "layers", len(layers))

	for _, layer := range layers {
		if ctx.Err() != nil {
			break
		}

		g, gctx := errgroup.WithContext(ctx)
		if e.concurrency > 0 {
			g.SetLimit(e.concurrency)
		}
		for _, id := range layer {
			if _, done := state.get(id); done {
				continue
			}
			n := nodes[id]
			preds := def.Predecessors(id)
			g.Go(func() error {
				return e.invoke(gctx, run, n, preds, state)
			})
		}

		if err := g.Wait(); err != nil {
			if ctx.Err() != nil {
				break
			}
			return e.finish(ctx, log, run, def, state, start, domain.RunFailed, err)
		}
	}

	if ctx.Err() != nil {
		status := domain.RunCanceled
		if errors.Is(context.Cause(ctx), ErrPaused) {
			status = domain.RunPaused
		}
		e.markPending(ctx, run, def, state, status)
		return e.finish(ctx, log, run, def, state, start, status, context.Cause(ctx))
	}
	return e.finish(ctx, log, run, def, state, start, domain.RunCompleted, nil)
}

func (e *Executor) invoke(ctx context.Context, run *domain.RunRecord, n node.Node, preds []string, state *runState) error {
	var input any = run.Inputs
	if len(preds) > 0 {
		in := make(map[string]schema.Record, len(preds))
		for _, p := range preds {
			rec, ok := state.get(p)
			if !ok {
				return fmt.Errorf("node %q: predecessor %q has no output", n.Name(), p)
			}
			in[p] = rec
		}
		input = in
	}

	startedAt := time.Now().UTC()
	task := &domain.TaskRecord{
		RunID:     run.ID,
		NodeID:    n.Name(),
		NodeType:  n.Descriptor().Name,
		Status:    domain.TaskRunning,
		Inputs:    dumpInput(input),
		StartTime: &startedAt,
	}
	if err := e.store.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("save task %s: %w", task.NodeID, err)
	}

	event := &domain.NodeEvent{
		Timestamp: startedAt,
		Type:      domain.EventNodeStart,
		RunID:     run.ID,
		NodeID:    task.NodeID,
		NodeType:  task.NodeType,
		Status:    domain.TaskRunning,
	}
	if e.hooks.OnNodeStart != nil {
		e.hooks.OnNodeStart(ctx, event)
	}

	out, callErr := n.Call(ctx, input)

	endedAt := time.Now().UTC()
	task.EndTime = &endedAt
	switch {
	case callErr == nil:
		task.Status = domain.TaskCompleted
		task.Outputs = out.Dump()
		state.set(task.NodeID, out)
	case ctx.Err() != nil && errors.Is(context.Cause(ctx), ErrPaused):
		task.Status = domain.TaskPaused
	case ctx.Err() != nil:
		task.Status = domain.TaskCanceled
	default:
		task.Status = domain.TaskFailed
		task.Error = callErr.Error()
	}

	if e.hooks.OnNodeFinish != nil {
		finish := *event
		finish.Timestamp = endedAt
		finish.Type = domain.EventNodeFinish
		finish.Status = task.Status
		finish.Duration = endedAt.Sub(startedAt)
		finish.Err = callErr
		e.hooks.OnNodeFinish(ctx, &finish)
	}

	// Status must be recorded even when the run context is already done.
	if err := e.store.SaveTask(context.WithoutCancel(ctx), task); err != nil {
		return fmt.Errorf("save task %s: %w", task.NodeID, err)
	}
	return callErr
}

// markPending records every node that never started as paused or canceled.
func (e *Executor) markPending(ctx context.Context, run *domain.RunRecord, def *Definition, state *runState, status domain.RunStatus) {
	ctx = context.WithoutCancel(ctx)
	tasks, err := e.store.ListTasks(ctx, run.ID)
	if err != nil {
		e.logger.Warn("failed to list tasks", "run_id", run.ID, "error", err)
		return
	}
	started := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		switch t.Status {
		case domain.TaskRunning, domain.TaskCompleted, domain.TaskFailed:
			started[t.NodeID] = true
		}
	}

	taskStatus := domain.TaskCanceled
	if status == domain.RunPaused {
		taskStatus = domain.TaskPaused
	}
	for _, nd := range def.Nodes {
		if _, done := state.get(nd.ID); done || started[nd.ID] {
			continue
		}
		task := &domain.TaskRecord{RunID: run.ID, NodeID: nd.ID, NodeType: nd.Type, Status: taskStatus}
		if err := e.store.SaveTask(ctx, task); err != nil {
			e.logger.Warn("failed to save task", "run_id", run.ID, "node", nd.ID, "error", err)
		}
	}
}

func (e *Executor) finish(ctx context.Context, log *slog.Logger, run *domain.RunRecord, def *Definition, state *runState, start time.Time, status domain.RunStatus, runErr error) (*Result, error) {
	ctx = context.WithoutCancel(ctx)

	res := &Result{
		RunID:   run.ID,
		Status:  status,
		Outputs: make(map[string]schema.Record),
		Sinks:   def.Sinks(),
	}
	if state != nil {
		state.mu.Lock()
		for id, rec := range state.outputs {
			res.Outputs[id] = rec
		}
		state.mu.Unlock()
	}

	end := time.Now().UTC()
	run.Status = status
	run.EndTime = &end
	run.Outputs = make(map[string]any, len(res.Sinks))
	for _, id := range res.Sinks {
		if rec, ok := res.Outputs[id]; ok {
			run.Outputs[id] = rec.Dump()
		}
	}
	if runErr != nil && status == domain.RunFailed {
		run.Error = runErr.Error()
	}

	if e.metrics != nil {
		e.metrics.RunFinished(status, time.Since(start))
	}

	if err := e.store.SaveRun(ctx, run); err != nil {
		return res, errors.Join(runErr, fmt.Errorf("save run: %w", err))
	}

	switch status {
	case domain.RunFailed:
		log.Error("run failed", "error", runErr, "elapsed", time.Since(start))
		return res, runErr
	case domain.RunPaused:
		log.Info("run paused", "completed_nodes", len(res.Outputs))
		return res, nil
	case domain.RunCanceled:
		log.Warn("run canceled", "error", runErr)
		return res, runErr
	default:
		log.Info("run completed", "elapsed", time.Since(start))
		return res, nil
	}
}

func dumpInput(input any) map[string]any {
	switch v := input.(type) {
	case map[string]schema.Record:
		out := make(map[string]any, len(v))
		for k, rec := range v {
			out[k] = rec.Dump()
		}
		return out
	case map[string]any:
		return v
	default:
		return nil
	}
}

// rehydrate turns a recorded output mapping back into a Record.
// The shape follows the recorded values.
func rehydrate(nodeID string, outputs map[string]any) (schema.Record, error) {
	keys := make([]string, 0, len(outputs))
	for k := range outputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return schema.InferShape(nodeID, keys, outputs).Coerce(outputs)
}
