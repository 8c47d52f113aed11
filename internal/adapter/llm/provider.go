package llm

import (
	"context"
	"fmt"

	"docshelf/internal/port"
)

// New builds the generation client named in configuration. An empty or
// "none" provider disables generation and returns a nil client.
func New(ctx context.Context, provider, apiKey, model string) (port.LLM, error) {
	switch provider {
	case "", "none":
		return nil, nil
	case "gemini":
		return NewGeminiClient(ctx, apiKey, model)
	case "claude", "anthropic":
		return NewClaudeClient(apiKey, model)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}
