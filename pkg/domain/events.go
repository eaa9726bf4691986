package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeStart  EventType = "node_start"
	EventNodeFinish EventType = "node_finish"
)

// NodeEvent reports a node invocation inside a run.
type NodeEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Type      EventType     `json:"type"`
	RunID     string        `json:"run_id"`
	NodeID    string        `json:"node_id"`
	NodeType  string        `json:"node_type"`
	Status    TaskStatus    `json:"status,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Err       error         `json:"-"`
}

// LifecycleHooks defines callbacks for executor observability.
type LifecycleHooks struct {
	OnNodeStart  func(context.Context, *NodeEvent)
	OnNodeFinish func(context.Context, *NodeEvent)
}
