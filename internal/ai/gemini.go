package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiAgent implements Agent using Google's Gemini models.
type GeminiAgent struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiAgent initializes a Gemini client bound to one system prompt.
func NewGeminiAgent(ctx context.Context, s Settings, systemPrompt string) (*GeminiAgent, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(s.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	name := s.Model
	if name == "" {
		name = defaultGeminiModel
	}
	model := client.GenerativeModel(name)

	// Force JSON response for structured parsing.
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(s.Temperature)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}

	return &GeminiAgent{client: client, model: model}, nil
}

// Close cleans up the Gemini client resources.
func (a *GeminiAgent) Close() error {
	return a.client.Close()
}

// Respond sends input as a single user turn.
func (a *GeminiAgent) Respond(ctx context.Context, input string) (string, error) {
	resp, err := a.model.GenerateContent(ctx, genai.Text(input))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response candidates from Gemini")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	return cleanJSONString(text.String()), nil
}
