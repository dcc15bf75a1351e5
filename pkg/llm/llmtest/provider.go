// Package llmtest provides a scripted LLM provider for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"commerce-assistant/pkg/llm"
)

var ErrNoScript = errors.New("llmtest: no scripted response left")

// Provider replays scripted replies in order. Reply, when set, takes
// precedence and computes the answer from the request.
type Provider struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	Reply     func(history []llm.Message) (string, error)
	Calls     [][]llm.Message
}

var _ llm.LLMProvider = &Provider{}

func New(responses ...string) *Provider {
	return &Provider{Responses: responses}
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Calls = append(p.Calls, history)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.Reply != nil {
		return p.Reply(history)
	}
	if p.Err != nil {
		return "", p.Err
	}
	if len(p.Responses) == 0 {
		return "", ErrNoScript
	}
	next := p.Responses[0]
	p.Responses = p.Responses[1:]
	return next, nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

// CallCount returns how many requests reached the provider.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}

// LastPrompt returns the content of the final message of the last request.
func (p *Provider) LastPrompt() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Calls) == 0 {
		return ""
	}
	last := p.Calls[len(p.Calls)-1]
	if len(last) == 0 {
		return ""
	}
	return last[len(last)-1].Content
}
