package progress

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/aretw0/spindle/pkg/domain"
)

// jsonEvent adds the error text, which NodeEvent does not serialize.
type jsonEvent struct {
	*domain.NodeEvent
	DurationMS int64  `json:"duration_ms,omitempty"`
	Error      string `json:"error,omitempty"`
}

// JSONHandler writes each event as a single JSON line.
type JSONHandler struct {
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler writing to w (stdout when nil).
func NewJSONHandler(w io.Writer) *JSONHandler {
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{Encoder: json.NewEncoder(w)}
}

func (h *JSONHandler) Handle(ctx context.Context, e *domain.NodeEvent) error {
	out := jsonEvent{NodeEvent: e, DurationMS: e.Duration.Milliseconds()}
	if e.Err != nil {
		out.Error = e.Err.Error()
	}
	return h.Encoder.Encode(out)
}
