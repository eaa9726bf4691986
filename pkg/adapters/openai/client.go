// Package openai adapts the OpenAI API to the embedding and chat completion ports.
package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/spindle/pkg/ports"
	"github.com/sashabaranov/go-openai"
)

// ErrEmptyResponse is returned when the API answers without choices or embeddings.
var ErrEmptyResponse = errors.New("openai: empty response")

const (
	DefaultEmbeddingModel = "text-embedding-3-small"
	DefaultTimeout        = 60 * time.Second
)

// Client implements ports.Embedder and ports.ChatCompleter.
type Client struct {
	client         *openai.Client
	embeddingModel string
	timeout        time.Duration
}

type Option func(*Client)

// WithEmbeddingModel sets the model used by Embed.
func WithEmbeddingModel(model string) Option {
	return func(c *Client) {
		c.embeddingModel = model
	}
}

// WithTimeout bounds each API request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// New creates a client for the given API key. baseURL may be empty.
func New(apiKey, baseURL string, opts ...Option) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	c := &Client{
		client:         openai.NewClientWithConfig(cfg),
		embeddingModel: DefaultEmbeddingModel,
		timeout:        DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	_ ports.Embedder      = (*Client)(nil)
	_ ports.ChatCompleter = (*Client)(nil)
)

// Embed returns one vector per text, in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.embeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ErrEmptyResponse, len(resp.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("openai: embedding index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

// Complete runs a chat completion and returns the first choice.
func (c *Client) Complete(ctx context.Context, req ports.ChatRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	creq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSON {
		creq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, creq)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
