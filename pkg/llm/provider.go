// Package llm is the narrow chat-completion contract the assistant needs,
// with one adapter per backend.
package llm

import (
	"context"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NormalizeRole maps stored history roles onto the three roles every
// backend accepts.
func NormalizeRole(role string) string {
	switch role {
	case RoleSystem:
		return RoleSystem
	case RoleAssistant, "model", "bot":
		return RoleAssistant
	default:
		return RoleUser
	}
}

type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string
	JSONMode    bool // constrain output to a JSON object
}

func WithTemperature(temp float64) Option {
	return func(o *Options) { o.Temperature = temp }
}

func WithModel(model string) Option {
	return func(o *Options) { o.Model = model }
}

func WithMaxTokens(n int) Option {
	return func(o *Options) { o.MaxTokens = n }
}

func WithJSONMode() Option {
	return func(o *Options) { o.JSONMode = true }
}

// Apply resolves opts over the backend defaults.
func Apply(defaults Options, opts ...Option) Options {
	for _, opt := range opts {
		opt(&defaults)
	}
	return defaults
}

// LLMProvider is implemented by every completion backend.
type LLMProvider interface {
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)
	// Generate is Chat with a single user message.
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}
