package response

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"commerce-assistant/internal/pkg/logger"
	"commerce-assistant/pkg/llm"
	"commerce-assistant/pkg/rag"
	"commerce-assistant/pkg/rag/prompt"
	"commerce-assistant/pkg/resilience"
	"commerce-assistant/pkg/store"
)

const (
	// HistoryTurns is how many previous turns feed a generation prompt.
	HistoryTurns = 5

	generationTemperature = 0.4
)

var errEmptyAnswer = errors.New("model returned an empty answer")

// Generator writes the final answer from a retrieved context block.
type Generator struct {
	llmProvider llm.LLMProvider
	policy      resilience.Policy
	logger      logger.ILogger
}

func NewGenerator(llmProvider llm.LLMProvider, policy resilience.Policy, log logger.ILogger) *Generator {
	if policy.Name == "" {
		policy.Name = "generation"
	}
	return &Generator{llmProvider: llmProvider, policy: policy, logger: log}
}

// Generate answers query from contextBlock. Customer is optional.
func (g *Generator) Generate(ctx context.Context, query, contextBlock string, history []store.Turn, customer *prompt.CustomerContext) (string, error) {
	return g.GenerateTask(ctx, "", query, contextBlock, history, customer)
}

// GenerateTask is Generate with a specific task instruction.
func (g *Generator) GenerateTask(ctx context.Context, task, query, contextBlock string, history []store.Turn, customer *prompt.CustomerContext) (string, error) {
	builder := prompt.NewContextualBuilder(contextBlock).WithTask(task)
	if customer != nil {
		builder.WithCustomer(customer.Render(), customer.Tone())
	}

	messages := BuildMessages(builder.Build(), history, query)

	answer, err := resilience.Do(ctx, g.policy, g.notify, func(ctx context.Context) (string, error) {
		out, err := g.llmProvider.Chat(ctx, messages, llm.WithTemperature(generationTemperature))
		if err != nil {
			return "", err
		}
		out = strings.TrimSpace(out)
		if out == "" {
			return "", errEmptyAnswer
		}
		return out, nil
	})
	if err != nil {
		g.logger.Error("Generator", "generation failed", map[string]interface{}{"error": err.Error()})
		return "", fmt.Errorf("%w: generate: %v", rag.ErrExternalService, err)
	}
	return answer, nil
}

// GenerateJSON asks for a JSON document and decodes it into out after schema
// validation. Invalid output is retried like a transport error.
func (g *Generator) GenerateJSON(ctx context.Context, promptText string, schema *llm.Schema, out interface{}) error {
	_, err := resilience.Do(ctx, g.policy, g.notify, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, llm.GenerateJSON(ctx, g.llmProvider, promptText, schema, out)
	})
	if err != nil {
		g.logger.Warn("Generator", "structured generation failed", map[string]interface{}{"error": err.Error()})
		return fmt.Errorf("%w: generate json: %v", rag.ErrExternalService, err)
	}
	return nil
}

func (g *Generator) notify(policy string, attempt int, err error) {
	g.logger.Warn("Generator", "retrying model call", map[string]interface{}{
		"policy":  policy,
		"attempt": attempt,
		"error":   err.Error(),
	})
}

// BuildMessages lays out system prompt, the last turns and the query.
func BuildMessages(system string, history []store.Turn, query string) []llm.Message {
	if len(history) > HistoryTurns {
		history = history[len(history)-HistoryTurns:]
	}
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: system})
	for _, t := range history {
		role := "user"
		if t.Role == store.RoleAssistant {
			role = "assistant"
		}
		messages = append(messages, llm.Message{Role: role, Content: t.Text})
	}
	return append(messages, llm.Message{Role: "user", Content: query})
}
