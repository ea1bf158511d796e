package ai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = openai.GPT4oMini

// OpenAIAgent implements Agent on the OpenAI chat completions API.
type OpenAIAgent struct {
	client       *openai.Client
	model        string
	temperature  float32
	systemPrompt string
}

// NewOpenAIAgent creates an agent bound to one system prompt.
func NewOpenAIAgent(s Settings, systemPrompt string) *OpenAIAgent {
	model := s.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIAgent{
		client:       openai.NewClient(s.APIKey),
		model:        model,
		temperature:  s.Temperature,
		systemPrompt: systemPrompt,
	}
}

// Close is a no-op; the HTTP client holds no resources worth releasing.
func (a *OpenAIAgent) Close() error { return nil }

// Respond sends input as a single user turn in JSON mode.
func (a *OpenAIAgent) Respond(ctx context.Context, input string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: a.systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: input},
		},
		Temperature: a.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from OpenAI")
	}
	return cleanJSONString(resp.Choices[0].Message.Content), nil
}
