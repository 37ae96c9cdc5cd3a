package core

import "context"

// LLMProvider is the generation collaborator: user text plus a system prompt in,
// raw reply text out.
type LLMProvider interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}
