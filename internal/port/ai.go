package port

import "context"

// CompletionProvider abstracts the hosted chat-completion backend.
type CompletionProvider interface {
	// ModelName returns the identifier of the model being used.
	ModelName() string

	// Configured reports whether the provider has the credentials it needs.
	Configured() bool

	// Complete sends a system and user message and returns the raw reply text.
	Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}
