package embedding

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"commerce-assistant/pkg/llm"
)

const DefaultModel = "nomic-embed-text"

// OllamaProvider uses the /api/embed endpoint, which accepts a batch of
// inputs and returns one vector per input in order.
type OllamaProvider struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

var _ BatchProvider = &OllamaProvider{}

func NewOllamaProvider(baseURL string, model string) *OllamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = DefaultModel
	}
	return &OllamaProvider{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

func (p *OllamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (p *OllamaProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp embedResponse
	err := llm.PostJSON(ctx, p.Client, "ollama embed", p.BaseURL+"/api/embed", "", embedRequest{Model: p.Model, Input: texts}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama embed: got %d vectors for %d inputs", len(resp.Embeddings), len(texts))
	}

	out := make([][]float32, len(texts))
	for i, raw := range resp.Embeddings {
		if len(raw) == 0 {
			return nil, fmt.Errorf("ollama embed: empty vector for input %d", i)
		}
		// pgvector cosine distance expects unit vectors
		out[i] = normalize(raw)
	}
	return out, nil
}

func normalize(vec []float64) []float32 {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	out := make([]float32, len(vec))
	mag := math.Sqrt(sum)
	for i, v := range vec {
		if mag == 0 {
			out[i] = float32(v)
			continue
		}
		out[i] = float32(v / mag)
	}
	return out
}
