package oracle

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/ethicalmeat/backend/internal/domain"
)

// OpenAIClient implements domain.Oracle on top of an OpenAI-compatible chat
// completion API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates an oracle client. A non-empty baseURL points the
// client at a compatible local endpoint instead of the hosted API.
func NewOpenAIClient(apiKey, model, baseURL string) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Complete sends the prompt as a single user message and returns the raw
// completion text.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrOracleUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no response choices", domain.ErrOracleUnavailable)
	}

	return resp.Choices[0].Message.Content, nil
}
