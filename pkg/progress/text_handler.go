package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aretw0/spindle/pkg/domain"
	"github.com/muesli/termenv"
)

// TextHandler prints one line per event, colored by status.
type TextHandler struct {
	Writer  io.Writer
	Profile termenv.Profile
}

// NewTextHandler creates a handler writing to w (stderr when nil).
// Use termenv.Ascii to disable colors.
func NewTextHandler(w io.Writer, p termenv.Profile) *TextHandler {
	if w == nil {
		w = os.Stderr
	}
	return &TextHandler{Writer: w, Profile: p}
}

func (h *TextHandler) Handle(ctx context.Context, e *domain.NodeEvent) error {
	var line string
	switch e.Type {
	case domain.EventNodeStart:
		line = fmt.Sprintf("%s %s (%s)", h.Profile.String("▶").Faint(), e.NodeID, e.NodeType)
	default:
		status := h.Profile.String(string(e.Status)).Foreground(h.Profile.Color(statusColor(e.Status)))
		line = fmt.Sprintf("%s %s %s in %s", h.Profile.String("■").Faint(), e.NodeID, status, e.Duration.Round(time.Millisecond))
		if e.Err != nil {
			line += ": " + e.Err.Error()
		}
	}
	_, err := fmt.Fprintln(h.Writer, line)
	return err
}

func statusColor(s domain.TaskStatus) string {
	switch s {
	case domain.TaskCompleted:
		return "#22c55e"
	case domain.TaskFailed:
		return "#ef4444"
	case domain.TaskPaused:
		return "#eab308"
	default:
		return "#9ca3af"
	}
}
