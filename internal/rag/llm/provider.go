package llm

import "context"

// Provider generates text. Generate is the RAG answer path; Complete is a
// plain system+user completion used by the summarizer.
type Provider interface {
	Generate(ctx context.Context, query string, matches []string, messageHistory []string) (string, error)
	Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}
