// Package rerank reorders retrieval candidates with a Cohere-compatible
// rerank endpoint.
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"commerce-assistant/internal/pkg/logger"
	"commerce-assistant/pkg/resilience"
)

const (
	DefaultBaseURL = "https://api.cohere.com"
	DefaultModel   = "rerank-multilingual-v3.0"
)

// Result points back into the documents passed to Rerank.
type Result struct {
	Index int
	Score float64
}

type Reranker interface {
	// Rerank never fails: when the service is unavailable the documents are
	// returned in their original order.
	Rerank(ctx context.Context, query string, documents []string, topN int) []Result
}

type Client struct {
	apiKey  string
	baseURL string
	model   string
	policy  resilience.Policy
	http    *http.Client
	log     logger.ILogger
}

var _ Reranker = (*Client)(nil)

func NewClient(apiKey, baseURL, model string, policy resilience.Policy, log logger.ILogger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if policy.Name == "" {
		policy.Name = "rerank"
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		policy:  policy,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

type rerankRequest struct {
	Model           string   `json:"model"`
	Query           string   `json:"query"`
	Documents       []string `json:"documents"`
	TopN            int      `json:"top_n"`
	ReturnDocuments bool     `json:"return_documents"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

func (c *Client) Rerank(ctx context.Context, query string, documents []string, topN int) []Result {
	if len(documents) == 0 {
		return nil
	}
	if topN <= 0 {
		topN = len(documents)
	}

	if c.apiKey == "" {
		c.log.Debug("Reranker", "no api key, passing through", nil)
		return Passthrough(documents, topN, func(i int) float64 { return 1.0 - float64(i)*0.1 })
	}

	if len(documents) <= topN {
		return Passthrough(documents, topN, func(int) float64 { return 1.0 })
	}

	results, err := resilience.Do(ctx, c.policy, nil, func(ctx context.Context) ([]Result, error) {
		return c.call(ctx, rerankRequest{
			Model:     c.model,
			Query:     query,
			Documents: documents,
			TopN:      topN,
		})
	})
	if err != nil {
		c.log.Warn("Reranker", "rerank failed, passing through", map[string]interface{}{
			"error": err.Error(),
			"docs":  len(documents),
		})
		return Passthrough(documents, topN, func(int) float64 { return 1.0 })
	}
	return results
}

func (c *Client) call(ctx context.Context, payload rerankRequest) ([]Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, resilience.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, resilience.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("rerank error: status %d, body: %s", resp.StatusCode, string(raw))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, resilience.Permanent(err)
		}
		return nil, err
	}

	var parsed rerankResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, resilience.Permanent(fmt.Errorf("unmarshal rerank response: %w", err))
	}

	out := make([]Result, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.Index < 0 || r.Index >= len(payload.Documents) {
			continue
		}
		out = append(out, Result{Index: r.Index, Score: r.RelevanceScore})
	}
	return out, nil
}

// Passthrough keeps the first topN documents in order with the given scores.
func Passthrough(documents []string, topN int, score func(i int) float64) []Result {
	n := len(documents)
	if topN > 0 && topN < n {
		n = topN
	}
	out := make([]Result, n)
	for i := 0; i < n; i++ {
		out[i] = Result{Index: i, Score: score(i)}
	}
	return out
}
