package llm

import (
	"context"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// TokenFunc receives one text fragment per call, in arrival order.
// Returning an error aborts the stream.
type TokenFunc func(token string) error

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the full response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// ChatStream sends a chat history and yields the response token by token
	ChatStream(ctx context.Context, history []Message, onToken TokenFunc, options ...Option) error

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)

	// ModelName reports the active model, for response metadata
	ModelName() string
}
