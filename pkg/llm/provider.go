package llm

import (
	"context"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

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

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func NewOptions(defaults Options, opts ...Option) Options {
	for _, opt := range opts {
		opt(&defaults)
	}
	return defaults
}

// TokenHandler receives streamed text in arrival order. Returning an error stops the stream.
type TokenHandler func(token string) error

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Stream sends a chat history and delivers the response token by token.
	// Cancelling ctx stops consumption.
	Stream(ctx context.Context, history []Message, onToken TokenHandler, options ...Option) error
}

// SplitSystem separates a leading system message from the conversation.
func SplitSystem(history []Message) (string, []Message) {
	if len(history) > 0 && history[0].Role == RoleSystem {
		return history[0].Content, history[1:]
	}
	return "", history
}

// Collect runs Stream and concatenates the tokens.
func Collect(ctx context.Context, p LLMProvider, history []Message, options ...Option) (string, error) {
	var out []byte
	err := p.Stream(ctx, history, func(token string) error {
		out = append(out, token...)
		return nil
	}, options...)
	return string(out), err
}
