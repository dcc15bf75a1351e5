package factory

import (
	"fmt"
	"strings"

	"commerce-assistant/pkg/llm"
	"commerce-assistant/pkg/llm/ollama"
	"commerce-assistant/pkg/llm/openai"
)

// Config selects the completion backend. BaseURL falls back to
// OllamaBaseURL for the ollama backend so one local daemon serves both
// chat and embeddings.
type Config struct {
	Provider      string
	Model         string
	BaseURL       string
	APIKey        string
	OllamaBaseURL string
}

func NewLLMProvider(cfg Config) (llm.LLMProvider, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("llm provider %q: model is required", cfg.Provider)
	}
	switch strings.ToLower(cfg.Provider) {
	case "ollama", "":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = cfg.OllamaBaseURL
		}
		return ollama.NewOllamaProvider(baseURL, cfg.Model), nil
	case "openai":
		if cfg.APIKey == "" && cfg.BaseURL == "" {
			return nil, fmt.Errorf("openai provider requires LLM_API_KEY or LLM_BASE_URL")
		}
		return openai.NewProvider(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
