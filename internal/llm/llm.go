// Package llm is the optional text-refinement collaborator. The core only
// depends on the Refiner interface; the OpenAI-compatible client here is one
// implementation and generation works fine without it.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/avolkov/papergen/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// Refiner rewords a generated question without changing its meaning,
// category, or topic.
type Refiner interface {
	Refine(ctx context.Context, q model.Question) (string, error)
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new refinement client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Ping verifies the endpoint is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("LLM endpoint check: %w", err)
	}
	return nil
}

// Refine asks the model for a cleaner phrasing of the question text.
// The returned string is a single line; an empty response is an error.
func (c *Client) Refine(ctx context.Context, q model.Question) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildRefinePrompt(q)},
			{Role: openai.ChatMessageRoleUser, Content: q.Text},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("LLM returned empty text")
	}
	// Keep one line; refusing multi-line output keeps exports tidy.
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = strings.TrimSpace(text[:i])
	}
	return text, nil
}

func buildRefinePrompt(q model.Question) string {
	var sb strings.Builder
	sb.WriteString("You are an exam editor. Rewrite the question below so it reads naturally, ")
	sb.WriteString("without changing its meaning, difficulty, or subject matter.\n\n")
	fmt.Fprintf(&sb, "TOPIC: %s\n", q.Topic)
	fmt.Fprintf(&sb, "CATEGORY: %s\n", q.Category)
	fmt.Fprintf(&sb, "MARKS: %d\n\n", q.Marks)
	sb.WriteString("RULES:\n")
	sb.WriteString("- The topic name must still appear in the question.\n")
	sb.WriteString("- Keep the same answer format the category implies.\n")
	sb.WriteString("- Respond with the rewritten question only, on a single line.\n")
	return sb.String()
}
