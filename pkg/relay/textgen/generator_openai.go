package textgen

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultModel = openai.GPT4o

	maxTokens   = 1000
	temperature = 0.7
)

type OpenAiGenerator struct {
	apiKey string
	model  string
	client *openai.Client
}

var _ TextGenerator = (*OpenAiGenerator)(nil)

func NewOpenAiGenerator(apiKey string, model string, baseUrl string) *OpenAiGenerator {
	config := openai.DefaultConfig(apiKey)
	if baseUrl != "" {
		config.BaseURL = baseUrl
	}

	if model == "" {
		model = DefaultModel
	}

	return &OpenAiGenerator{
		apiKey: apiKey,
		model:  model,
		client: openai.NewClientWithConfig(config),
	}
}

// Generate falls back to the generator's model when model is empty.
func (g *OpenAiGenerator) Generate(ctx context.Context, model string, systemPrompt string, prompt string) (string, error) {
	if model == "" {
		model = g.model
	}

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	return resp.Choices[0].Message.Content, nil
}

func (g *OpenAiGenerator) Model() string {
	return g.model
}
