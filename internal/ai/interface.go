// README: LLM agent abstraction and provider selection.
package ai

import (
	"context"
	"fmt"
	"strings"
)

// Agent sends one input to a language model configured with a fixed role
// and returns the raw text of its reply.
type Agent interface {
	Respond(ctx context.Context, input string) (string, error)
	Close() error
}

// Provider names a model backend.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// Settings selects and configures a backend.
type Settings struct {
	Provider    Provider
	APIKey      string
	Model       string
	Temperature float32
}

// NewAgent builds an agent for the configured provider with the given role prompt.
func NewAgent(ctx context.Context, s Settings, systemPrompt string) (Agent, error) {
	switch s.Provider {
	case ProviderGemini, "":
		return NewGeminiAgent(ctx, s, systemPrompt)
	case ProviderOpenAI:
		return NewOpenAIAgent(s, systemPrompt), nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", s.Provider)
	}
}

// cleanJSONString strips Markdown code fences some models wrap JSON in.
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
