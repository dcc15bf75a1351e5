package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var ErrNoJSON = errors.New("no JSON object in model output")

// Schema is a compiled JSON schema used to validate model output.
type Schema struct {
	schema *gojsonschema.Schema
}

// MustSchema compiles a JSON schema literal and panics on invalid input.
// Only call it with static schema strings.
func MustSchema(raw string) *Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("llm: invalid schema: %v", err))
	}
	return &Schema{schema: s}
}

// Validate checks a raw JSON document against the schema.
func (s *Schema) Validate(doc string) error {
	result, err := s.schema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("data validation failed: %v", errs)
	}
	return nil
}

// ExtractJSON returns the substring between the first '{' and the last '}'.
// Models often wrap JSON in prose or code fences.
func ExtractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return text[start : end+1]
}

// ChatJSON sends the messages in JSON mode at temperature 0 and decodes the
// first JSON object of the answer into out. A nil schema skips validation.
func ChatJSON(ctx context.Context, p LLMProvider, messages []Message, schema *Schema, out interface{}, opts ...Option) error {
	opts = append([]Option{WithTemperature(0), WithJSONMode()}, opts...)

	raw, err := p.Chat(ctx, messages, opts...)
	if err != nil {
		return err
	}

	doc := ExtractJSON(raw)
	if doc == "" {
		return ErrNoJSON
	}

	if schema != nil {
		if err := schema.Validate(doc); err != nil {
			return err
		}
	}

	if err := json.Unmarshal([]byte(doc), out); err != nil {
		return fmt.Errorf("unmarshal model JSON: %w", err)
	}
	return nil
}

// GenerateJSON is ChatJSON for a single user prompt.
func GenerateJSON(ctx context.Context, p LLMProvider, prompt string, schema *Schema, out interface{}, opts ...Option) error {
	return ChatJSON(ctx, p, []Message{{Role: "user", Content: prompt}}, schema, out, opts...)
}
