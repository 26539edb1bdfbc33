package vectorstore

import "context"

// Hit is one nearest-neighbor result: the stored chunk text, its
// metadata snapshot, and the store's similarity score.
type Hit struct {
	Document string
	Payload  map[string]string
	Score    float32
}

// Store is the opaque nearest-neighbor service boundary. Ids are
// caller-supplied chunk ids; upserting the same id twice overwrites.
type Store interface {
	EnsureCollection(ctx context.Context, name string) error
	Upsert(ctx context.Context, collection, id string, vector []float32, document string, payload map[string]any) error
	Query(ctx context.Context, collection string, vector []float32, k int) ([]Hit, error)
}
