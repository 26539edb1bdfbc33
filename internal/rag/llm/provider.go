package llm

import "context"

// Provider is the opaque text-completion boundary. Quota, timeout, and
// network failures come back as recoverable errors; callers degrade to
// templated answers instead of propagating them.
type Provider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int64, temperature float64) (string, error)
}
