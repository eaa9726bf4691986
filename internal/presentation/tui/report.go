package tui

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/spindle/pkg/domain"
)

// RunReport renders a run and its tasks as markdown.
func RunReport(run *domain.RunRecord, tasks []*domain.TaskRecord) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Run `%s`\n\n", run.ID)
	fmt.Fprintf(&sb, "**Workflow:** %s  \n**Status:** %s  \n", run.WorkflowID, statusBadge(string(run.Status)))
	if run.EndTime != nil {
		fmt.Fprintf(&sb, "**Duration:** %s  \n", run.EndTime.Sub(run.StartTime).Round(time.Millisecond))
	}
	if run.Error != "" {
		fmt.Fprintf(&sb, "\n> **Error:** %s\n", run.Error)
	}

	if len(tasks) > 0 {
		sb.WriteString("\n## Tasks\n\n| Node | Type | Status | Duration |\n|---|---|---|---|\n")
		for _, t := range tasks {
			d := "-"
			if t.StartTime != nil && t.EndTime != nil {
				d = t.EndTime.Sub(*t.StartTime).Round(time.Microsecond).String()
			}
			fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", t.NodeID, t.NodeType, statusBadge(string(t.Status)), d)
		}
	}

	if len(run.Outputs) > 0 {
		sb.WriteString("\n## Outputs\n")
		ids := make([]string, 0, len(run.Outputs))
		for id := range run.Outputs {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			data, err := json.MarshalIndent(run.Outputs[id], "", "  ")
			if err != nil {
				data = []byte(fmt.Sprint(run.Outputs[id]))
			}
			fmt.Fprintf(&sb, "\n### %s\n\n```json\n%s\n```\n", id, data)
		}
	}
	return sb.String()
}

func statusBadge(status string) string {
	switch status {
	case "COMPLETED":
		return "✅ " + status
	case "FAILED":
		return "❌ " + status
	case "PAUSED":
		return "⏸️ " + status
	case "CANCELED":
		return "⛔ " + status
	default:
		return status
	}
}
