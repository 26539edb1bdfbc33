package embedding

import "context"

// Embedder maps text to a fixed-dimension vector. Deterministic for
// identical input and model version. Documents and queries use separate
// task types because retrieval-tuned models embed them differently.
type Embedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
