package llm

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
)

// Options control a single completion call.
type Options struct {
	MaxTokens   int
	Temperature float32
}

// CompletionError reports a failed backend call. The core never retries
// it; retry is the caller's policy.
type CompletionError struct {
	Message string
	Err     error
}

func (e *CompletionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("completion: %s: %v", e.Message, e.Err)
	}
	return "completion: " + e.Message
}

func (e *CompletionError) Unwrap() error { return e.Err }

// Client wraps an OpenAI-compatible API client. It works against any
// endpoint speaking the chat-completions protocol (OpenRouter, Ollama,
// OpenAI itself).
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new completion client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Complete sends a single-message prompt and returns the raw response
// text. The response is opaque here; decoding it is the caller's job.
func (c *Client) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	})
	if err != nil {
		return "", &CompletionError{Message: "chat completion call failed", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &CompletionError{Message: "backend returned no choices"}
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("completion response", "model", c.model, "bytes", len(raw))
	return raw, nil
}

// Ping verifies the endpoint is reachable and the credentials work.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("llm endpoint: %w", err)
	}
	return nil
}
