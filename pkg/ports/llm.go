package ports

import "context"

// ChatMessage is one turn of a chat completion request.
type ChatMessage struct {
	Role    string
	Content string
}

// ChatRequest is a single chat completion request.
type ChatRequest struct {
	Model       string
	Messages    []ChatMessage
	Temperature float32
	MaxTokens   int
	// JSON asks the provider for a JSON object response.
	JSON bool
}

// ChatCompleter calls a chat completion model.
type ChatCompleter interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}
