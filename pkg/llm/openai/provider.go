package openai

import (
	"context"
	"net/http"
	"strings"
	"time"

	"commerce-assistant/pkg/llm"
)

const DefaultBaseURL = "https://api.openai.com/v1"

// Provider talks to any OpenAI compatible /chat/completions endpoint.
type Provider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

var _ llm.LLMProvider = &Provider{}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []llm.Message   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message llm.Message `json:"message"`
	} `json:"choices"`
}

func NewProvider(apiKey, baseURL, model string) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Provider{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	opts := llm.Apply(llm.Options{Model: p.model, Temperature: 0.7, MaxTokens: 800}, options...)

	messages := make([]llm.Message, len(history))
	for i, msg := range history {
		messages[i] = llm.Message{Role: llm.NormalizeRole(msg.Role), Content: msg.Content}
	}

	req := chatRequest{
		Model:       opts.Model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	if opts.JSONMode {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	var resp chatResponse
	if err := llm.PostJSON(ctx, p.client, "openai", p.baseURL+"/chat/completions", p.apiKey, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", llm.ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}
