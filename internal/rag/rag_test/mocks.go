package rag_test

import (
	"context"

	"github.com/pharma-intellect/pharmarag/internal/rag/vectorstore"
)

// MockStore implements vectorstore.Store
type MockStore struct {
	OnEnsureCollection func(ctx context.Context, name string) error
	OnUpsert           func(ctx context.Context, collection, id string, vector []float32, document string, payload map[string]any) error
	OnQuery            func(ctx context.Context, collection string, vector []float32, k int) ([]vectorstore.Hit, error)
}

func (m *MockStore) EnsureCollection(ctx context.Context, name string) error {
	if m.OnEnsureCollection != nil {
		return m.OnEnsureCollection(ctx, name)
	}
	return nil
}

func (m *MockStore) Upsert(ctx context.Context, collection, id string, vector []float32, document string, payload map[string]any) error {
	if m.OnUpsert != nil {
		return m.OnUpsert(ctx, collection, id, vector, document, payload)
	}
	return nil
}

func (m *MockStore) Query(ctx context.Context, collection string, vector []float32, k int) ([]vectorstore.Hit, error) {
	if m.OnQuery != nil {
		return m.OnQuery(ctx, collection, vector, k)
	}
	return nil, nil
}

type MockEmbedder struct {
	OnEmbedDocument func(ctx context.Context, text string) ([]float32, error)
	OnEmbedQuery    func(ctx context.Context, text string) ([]float32, error)
}

func (m *MockEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	if m.OnEmbedDocument != nil {
		return m.OnEmbedDocument(ctx, text)
	}
	return []float32{0.1}, nil
}

func (m *MockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if m.OnEmbedQuery != nil {
		return m.OnEmbedQuery(ctx, text)
	}
	return []float32{0.1}, nil
}

// MockLLM implements llm.Provider
type MockLLM struct {
	OnComplete func(ctx context.Context, system, user string, maxTokens int64, temperature float64) (string, error)
}

func (m *MockLLM) Complete(ctx context.Context, system, user string, maxTokens int64, temperature float64) (string, error) {
	if m.OnComplete != nil {
		return m.OnComplete(ctx, system, user, maxTokens, temperature)
	}
	return "mocked llm response", nil
}
