package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"commerce-assistant/pkg/resilience"
)

// ErrEmptyCompletion is returned when a backend answers 200 with no content.
var ErrEmptyCompletion = errors.New("empty completion")

// StatusError is a non-200 answer from a model backend.
type StatusError struct {
	Backend string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d, body: %s", e.Backend, e.Code, e.Body)
}

// Retryable reports whether another attempt could succeed.
func (e *StatusError) Retryable() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests
}

// PostJSON posts in to url and decodes the answer into out. Client errors
// and malformed bodies are marked permanent so call policies do not retry
// them.
func PostJSON(ctx context.Context, client *http.Client, backend, url, apiKey string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return resilience.Permanent(fmt.Errorf("%s: marshal request: %w", backend, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return resilience.Permanent(fmt.Errorf("%s: create request: %w", backend, err))
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", backend, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", backend, err)
	}
	if resp.StatusCode != http.StatusOK {
		serr := &StatusError{Backend: backend, Code: resp.StatusCode, Body: string(raw)}
		if !serr.Retryable() {
			return resilience.Permanent(serr)
		}
		return serr
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return resilience.Permanent(fmt.Errorf("%s: unmarshal response: %w", backend, err))
	}
	return nil
}
