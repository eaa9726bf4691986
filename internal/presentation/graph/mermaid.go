package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/workflow"
)

// GraphOverlay carries task statuses of a run to color the graph with.
type GraphOverlay struct {
	Tasks map[string]domain.TaskStatus
}

// OverlayFromTasks builds an overlay from persisted task records.
func OverlayFromTasks(tasks []*domain.TaskRecord) *GraphOverlay {
	o := &GraphOverlay{Tasks: make(map[string]domain.TaskStatus, len(tasks))}
	for _, t := range tasks {
		o.Tasks[t.NodeID] = t.Status
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart (graph TD) of a workflow.
// It applies semantic styling:
// - Input: [/Parallelogram/]
// - Merge: {{Hexagon}}
// - LLM category: [[Subroutine]]
// - Default: [Rectangle]
// Labels carry the node title when present and the node type.
func GenerateMermaid(def *workflow.Definition, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, n := range def.Nodes {
		safeID := sanitizeMermaidID(n.ID)

		opener, closer := "[", "]"
		switch n.Type {
		case "input_node":
			opener, closer = "[/", "/]"
		case "merge_node":
			opener, closer = "{{", "}}"
		case "retriever_node", "single_llm_call":
			opener, closer = "[[", "]]"
		}

		title := n.ID
		if n.Title != "" {
			title = n.Title
		}
		title = strings.ReplaceAll(title, "\"", "'")
		fmt.Fprintf(&sb, "    %s%s\"%s <br/> <i>%s</i>\"%s\n", safeID, opener, title, n.Type, closer)
	}

	for _, l := range def.Links {
		fmt.Fprintf(&sb, "    %s --> %s\n", sanitizeMermaidID(l.Source), sanitizeMermaidID(l.Target))
	}

	if overlay != nil && len(overlay.Tasks) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast regardless of theme (Light/Dark)
		sb.WriteString("    classDef completed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#b71c1c,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef halted fill:#ffeb3b,stroke:#fbc02d,stroke-width:2px,color:#000;\n")

		for _, n := range def.Nodes {
			status, ok := overlay.Tasks[n.ID]
			if !ok {
				continue
			}
			class := ""
			switch status {
			case domain.TaskCompleted:
				class = "completed"
			case domain.TaskFailed:
				class = "failed"
			case domain.TaskPaused, domain.TaskCanceled, domain.TaskRunning:
				class = "halted"
			}
			if class != "" {
				fmt.Fprintf(&sb, "    class %s %s;\n", sanitizeMermaidID(n.ID), class)
			}
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
