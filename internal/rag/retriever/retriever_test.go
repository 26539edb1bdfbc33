package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/pharma-intellect/pharmarag/internal/config"
	"github.com/pharma-intellect/pharmarag/internal/rag/vectorstore"
)

type mockEmbedder struct {
	queryFunc func(ctx context.Context, text string) ([]float32, error)
}

func (m *mockEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1}, nil
}

func (m *mockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if m.queryFunc != nil {
		return m.queryFunc(ctx, text)
	}
	return []float32{0.1}, nil
}

type mockStore struct {
	queryFunc func(ctx context.Context, collection string, vector []float32, k int) ([]vectorstore.Hit, error)
	requested map[string]int
}

func (m *mockStore) EnsureCollection(ctx context.Context, name string) error { return nil }

func (m *mockStore) Upsert(ctx context.Context, collection, id string, vector []float32, document string, payload map[string]any) error {
	return nil
}

func (m *mockStore) Query(ctx context.Context, collection string, vector []float32, k int) ([]vectorstore.Hit, error) {
	if m.requested == nil {
		m.requested = make(map[string]int)
	}
	m.requested[collection] = k
	if m.queryFunc != nil {
		return m.queryFunc(ctx, collection, vector, k)
	}
	return nil, nil
}

func settings() config.Settings {
	return config.Settings{NumSourcesToRetrieve: 5}
}

func hit(text, source string, score float32) vectorstore.Hit {
	return vectorstore.Hit{
		Document: text,
		Payload:  map[string]string{"source": source, "title": "t", "url": "u"},
		Score:    score,
	}
}

func TestRetrieve_FixedSourceOrderAndRelevance(t *testing.T) {
	store := &mockStore{
		queryFunc: func(ctx context.Context, collection string, v []float32, k int) ([]vectorstore.Hit, error) {
			switch collection {
			case config.PubMedCollection:
				return []vectorstore.Hit{hit("pm1", "PubMed", 0.2), hit("pm2", "PubMed", 0.1)}, nil
			case config.TrialsCollection:
				// Higher similarity than the PubMed hits, but the merge
				// must still keep trials after articles.
				return []vectorstore.Hit{hit("tr1", "ClinicalTrials.gov", 0.99)}, nil
			}
			return nil, nil
		},
	}

	r := New(&mockEmbedder{}, store, settings())
	docs, err := r.Retrieve(context.Background(), "risperidone adverse events")
	if err != nil {
		t.Fatal(err)
	}

	if len(docs) != 3 {
		t.Fatalf("got %d documents, want 3", len(docs))
	}
	wantTexts := []string{"pm1", "pm2", "tr1"}
	wantScores := []float64{0.8, 0.8, 0.75}
	for i, doc := range docs {
		if doc.Text != wantTexts[i] {
			t.Errorf("doc %d text = %q, want %q", i, doc.Text, wantTexts[i])
		}
		if doc.Relevance != wantScores[i] {
			t.Errorf("doc %d relevance = %v, want %v", i, doc.Relevance, wantScores[i])
		}
	}
}

func TestRetrieve_SimilarityRankingFlag(t *testing.T) {
	store := &mockStore{
		queryFunc: func(ctx context.Context, collection string, v []float32, k int) ([]vectorstore.Hit, error) {
			if collection == config.PubMedCollection {
				return []vectorstore.Hit{hit("pm1", "PubMed", 0.91)}, nil
			}
			return nil, nil
		},
	}

	set := settings()
	set.RankBySimilarity = true
	r := New(&mockEmbedder{}, store, set)

	docs, err := r.Retrieve(context.Background(), "q")
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].Relevance != float64(float32(0.91)) {
		t.Errorf("similarity ranking not applied: %+v", docs)
	}
}

func TestRetrieve_CollectionFailureDegrades(t *testing.T) {
	store := &mockStore{
		queryFunc: func(ctx context.Context, collection string, v []float32, k int) ([]vectorstore.Hit, error) {
			if collection == config.PubMedCollection {
				return nil, errors.New("collection does not exist")
			}
			return []vectorstore.Hit{hit("tr1", "ClinicalTrials.gov", 0.5)}, nil
		},
	}

	r := New(&mockEmbedder{}, store, settings())
	docs, err := r.Retrieve(context.Background(), "q")
	if err != nil {
		t.Fatalf("Retrieve must not fail when one collection fails: %v", err)
	}
	if len(docs) != 1 || docs[0].Text != "tr1" {
		t.Errorf("expected the surviving collection's results, got %+v", docs)
	}
}

func TestRetrieve_EmptyResultIsValid(t *testing.T) {
	r := New(&mockEmbedder{}, &mockStore{}, settings())
	docs, err := r.Retrieve(context.Background(), "q")
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 0 {
		t.Errorf("expected no documents, got %d", len(docs))
	}
}

func TestRetrieve_EmptyQueryRejected(t *testing.T) {
	r := New(&mockEmbedder{}, &mockStore{}, settings())
	if _, err := r.Retrieve(context.Background(), ""); err == nil {
		t.Error("empty query should be rejected")
	}
}

func TestPerCollectionK(t *testing.T) {
	tests := []struct {
		total int
		want  int
	}{
		{5, 2},
		{1, 1},
		{0, 1},
		{10, 5},
		{100, 5}, // hard cap regardless of total
	}

	for _, tt := range tests {
		store := &mockStore{}
		set := settings()
		set.NumSourcesToRetrieve = tt.total
		r := New(&mockEmbedder{}, store, set)

		if _, err := r.Retrieve(context.Background(), "q"); err != nil {
			t.Fatal(err)
		}
		if got := store.requested[config.PubMedCollection]; got != tt.want {
			t.Errorf("total=%d requested k=%d per collection, want %d", tt.total, got, tt.want)
		}
	}
}
