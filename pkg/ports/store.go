package ports

import (
	"context"

	"github.com/aretw0/spindle/pkg/domain"
)

// RunStore persists the status of workflow runs and their tasks.
// This allows a paused or interrupted run to be resumed.
type RunStore interface {
	// SaveRun creates or replaces a run record.
	SaveRun(ctx context.Context, run *domain.RunRecord) error

	// LoadRun retrieves a run record.
	// Returns domain.ErrRunNotFound if the run does not exist.
	LoadRun(ctx context.Context, runID string) (*domain.RunRecord, error)

	// ListRuns returns the runs of a workflow, most recent first.
	// An empty workflowID lists every run.
	ListRuns(ctx context.Context, workflowID string) ([]*domain.RunRecord, error)

	// SaveTask creates or replaces the record of one node execution.
	SaveTask(ctx context.Context, task *domain.TaskRecord) error

	// ListTasks returns the task records of a run ordered by node id.
	ListTasks(ctx context.Context, runID string) ([]*domain.TaskRecord, error)

	// DeleteRun removes a run and its tasks.
	DeleteRun(ctx context.Context, runID string) error
}

// DatasetStore keeps dataset metadata. File contents are stored elsewhere.
type DatasetStore interface {
	// CreateDataset stores the dataset and assigns its id when empty.
	CreateDataset(ctx context.Context, ds *domain.Dataset) error

	// GetDataset returns domain.ErrDatasetNotFound if the dataset does not exist.
	GetDataset(ctx context.Context, id string) (*domain.Dataset, error)

	ListDatasets(ctx context.Context) ([]*domain.Dataset, error)
}
