package domain

import (
	"errors"
	"fmt"
)

// Failure kinds of a node invocation.
var (
	// ErrInputValidation means the raw input could not be coerced to the input shape.
	ErrInputValidation = errors.New("input validation error")
	// ErrLogic means the node's own computation failed.
	ErrLogic = errors.New("logic error")
	// ErrOutputValidation means the returned value did not match the output shape.
	ErrOutputValidation = errors.New("output validation error")
	// ErrDependency means a referenced external resource is missing or not usable.
	ErrDependency = errors.New("dependency error")
)

// Lookup errors returned by stores.
var (
	ErrIndexNotFound   = errors.New("vector index not found")
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrRunNotFound     = errors.New("run not found")
)

// NodeError is a failed node invocation.
// errors.Is matches both its Kind and the original cause.
type NodeError struct {
	Node string
	Kind error
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %q: %v: %v", e.Node, e.Kind, e.Err)
}

func (e *NodeError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// NewNodeError creates a NodeError of the given kind.
func NewNodeError(node string, kind, err error) *NodeError {
	return &NodeError{Node: node, Kind: kind, Err: err}
}

// ErrIndexNotReady is returned when a vector index exists but cannot be searched yet.
var ErrIndexNotReady = errors.New("vector index is not ready")
