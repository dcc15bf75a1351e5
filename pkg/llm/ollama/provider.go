package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"commerce-assistant/pkg/llm"
)

const DefaultBaseURL = "http://localhost:11434"

// OllamaProvider calls the non-streaming /api/chat endpoint.
type OllamaProvider struct {
	BaseURL   string
	ModelName string
	Client    *http.Client
}

var _ llm.LLMProvider = &OllamaProvider{}

func NewOllamaProvider(baseURL, modelName string) *OllamaProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &OllamaProvider{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		ModelName: modelName,
		// Call policies set the real deadline; this only catches hung sockets.
		Client: &http.Client{Timeout: 120 * time.Second},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []llm.Message `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
	Options  modelOptions  `json:"options"`
}

type modelOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatResponse struct {
	Model   string      `json:"model"`
	Message llm.Message `json:"message"`
	Done    bool        `json:"done"`
}

func (o *OllamaProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := llm.Apply(llm.Options{Model: o.ModelName, Temperature: 0.7}, opts...)

	messages := make([]llm.Message, len(history))
	for i, msg := range history {
		messages[i] = llm.Message{Role: llm.NormalizeRole(msg.Role), Content: msg.Content}
	}

	req := chatRequest{
		Model:    options.Model,
		Messages: messages,
		Options:  modelOptions{Temperature: options.Temperature, NumPredict: options.MaxTokens},
	}
	if options.JSONMode {
		req.Format = "json"
	}

	var resp chatResponse
	if err := llm.PostJSON(ctx, o.Client, "ollama", o.BaseURL+"/api/chat", "", req, &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Message.Content) == "" {
		return "", llm.ErrEmptyCompletion
	}
	return resp.Message.Content, nil
}

func (o *OllamaProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return o.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}
