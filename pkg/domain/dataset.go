package domain

import (
	"fmt"
	"time"
)

// Dataset is an uploaded file that workflows can be evaluated against.
type Dataset struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	FilePath    string    `json:"file_path"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// DatasetID formats the public id of the n-th dataset.
func DatasetID(n int64) string { return fmt.Sprintf("DS%d", n) }

// VectorIndexID formats the public id of the n-th vector index.
func VectorIndexID(n int64) string { return fmt.Sprintf("VI%d", n) }
