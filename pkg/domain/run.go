package domain

import "time"

// RunStatus is the lifecycle state of a workflow run.
type RunStatus string

const (
	RunPending   RunStatus = "PENDING"
	RunRunning   RunStatus = "RUNNING"
	RunCompleted RunStatus = "COMPLETED"
	RunFailed    RunStatus = "FAILED"
	RunPaused    RunStatus = "PAUSED"
	RunCanceled  RunStatus = "CANCELED"
)

// Terminal reports whether the run can no longer progress without a resume.
func (s RunStatus) Terminal() bool {
	return s == RunCompleted || s == RunFailed || s == RunCanceled
}

// TaskStatus is the lifecycle state of a single node execution within a run.
type TaskStatus string

const (
	TaskPending   TaskStatus = "PENDING"
	TaskRunning   TaskStatus = "RUNNING"
	TaskCompleted TaskStatus = "COMPLETED"
	TaskFailed    TaskStatus = "FAILED"
	TaskPaused    TaskStatus = "PAUSED"
	TaskCanceled  TaskStatus = "CANCELED"
)

// RunRecord is the persisted state of a workflow run.
type RunRecord struct {
	ID         string         `json:"id"`
	WorkflowID string         `json:"workflow_id"`
	Status     RunStatus      `json:"status"`
	Inputs     map[string]any `json:"inputs,omitempty"`
	Outputs    map[string]any `json:"outputs,omitempty"`
	Error      string         `json:"error,omitempty"`
	StartTime  time.Time      `json:"start_time"`
	EndTime    *time.Time     `json:"end_time,omitempty"`
}

// TaskRecord is the persisted state of one node execution.
type TaskRecord struct {
	RunID     string         `json:"run_id"`
	NodeID    string         `json:"node_id"`
	NodeType  string         `json:"node_type"`
	Status    TaskStatus     `json:"status"`
	Inputs    map[string]any `json:"inputs,omitempty"`
	Outputs   map[string]any `json:"outputs,omitempty"`
	Error     string         `json:"error,omitempty"`
	StartTime *time.Time     `json:"start_time,omitempty"`
	EndTime   *time.Time     `json:"end_time,omitempty"`
}
