package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/pharma-intellect/pharmarag/internal/domain/record"
	"github.com/pharma-intellect/pharmarag/internal/kb/chunker"
	"github.com/pharma-intellect/pharmarag/internal/rag/vectorstore"
)

// --- Mocks ---

type mockEmbedder struct {
	embedFunc func(ctx context.Context, text string) ([]float32, error)
}

func (m *mockEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	if m.embedFunc != nil {
		return m.embedFunc(ctx, text)
	}
	return []float32{0.1, 0.2}, nil
}

func (m *mockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

type upsertCall struct {
	collection string
	id         string
	document   string
	payload    map[string]any
}

type mockStore struct {
	ensureFunc func(ctx context.Context, name string) error
	upsertFunc func(ctx context.Context, collection, id string, vector []float32, document string, payload map[string]any) error

	calls  []upsertCall
	points map[string]string // "collection/id" -> document
}

func (m *mockStore) EnsureCollection(ctx context.Context, name string) error {
	if m.ensureFunc != nil {
		return m.ensureFunc(ctx, name)
	}
	return nil
}

func (m *mockStore) Upsert(ctx context.Context, collection, id string, vector []float32, document string, payload map[string]any) error {
	if m.upsertFunc != nil {
		if err := m.upsertFunc(ctx, collection, id, vector, document, payload); err != nil {
			return err
		}
	}
	m.calls = append(m.calls, upsertCall{collection: collection, id: id, document: document, payload: payload})
	if m.points == nil {
		m.points = make(map[string]string)
	}
	m.points[collection+"/"+id] = document
	return nil
}

func (m *mockStore) Query(ctx context.Context, collection string, vector []float32, k int) ([]vectorstore.Hit, error) {
	return nil, nil
}

func newTestPipeline(t *testing.T, e *mockEmbedder, s *mockStore) *Pipeline {
	t.Helper()
	c, err := chunker.New(300, 50)
	if err != nil {
		t.Fatal(err)
	}
	return New(c, e, s)
}

// --- Tests ---

func TestIngest_SevenHundredCharAbstract(t *testing.T) {
	store := &mockStore{}
	p := newTestPipeline(t, &mockEmbedder{}, store)

	article := record.Article{
		PMID:     "39214589",
		Title:    "Sample article",
		Abstract: strings.Repeat("a", 700),
		URL:      "https://pubmed.ncbi.nlm.nih.gov/39214589/",
	}

	summary, err := p.Ingest(context.Background(), []record.Source{article}, "pubmed_abstracts", "pubmed", 0)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if summary.Chunks != 3 {
		t.Fatalf("Chunks = %d, want 3", summary.Chunks)
	}
	wantIDs := []string{"pubmed_39214589_0", "pubmed_39214589_1", "pubmed_39214589_2"}
	for i, call := range store.calls {
		if call.id != wantIDs[i] {
			t.Errorf("chunk %d id = %q, want %q", i, call.id, wantIDs[i])
		}
		if call.payload["chunk_idx"] != i {
			t.Errorf("chunk %d payload chunk_idx = %v, want %d", i, call.payload["chunk_idx"], i)
		}
		if call.payload["source"] != record.SourcePubMed {
			t.Errorf("chunk %d payload source = %v", i, call.payload["source"])
		}
	}
}

func TestIngest_SkipsEmptyBodies(t *testing.T) {
	store := &mockStore{}
	p := newTestPipeline(t, &mockEmbedder{}, store)

	records := []record.Source{
		record.Article{PMID: "1", Title: "no abstract", Abstract: ""},
		record.Article{PMID: "2", Title: "placeholder abstract", Abstract: "N/A"},
		record.Article{PMID: "3", Title: "real", Abstract: "an actual abstract"},
	}

	summary, err := p.Ingest(context.Background(), records, "pubmed_abstracts", "pubmed", 0)
	if err != nil {
		t.Fatal(err)
	}

	if summary.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", summary.Skipped)
	}
	if summary.Processed != 1 {
		t.Errorf("Processed = %d, want 1", summary.Processed)
	}
	if summary.Chunks != 1 {
		t.Errorf("Chunks = %d, want 1", summary.Chunks)
	}
}

func TestIngest_Idempotent(t *testing.T) {
	store := &mockStore{}
	p := newTestPipeline(t, &mockEmbedder{}, store)

	records := []record.Source{
		record.Article{PMID: "11", Title: "a", Abstract: strings.Repeat("x", 400)},
		record.Article{PMID: "12", Title: "b", Abstract: strings.Repeat("y", 650)},
	}

	first, err := p.Ingest(context.Background(), records, "pubmed_abstracts", "pubmed", 0)
	if err != nil {
		t.Fatal(err)
	}
	firstKeys := make([]string, 0, len(store.points))
	for k := range store.points {
		firstKeys = append(firstKeys, k)
	}

	second, err := p.Ingest(context.Background(), records, "pubmed_abstracts", "pubmed", 0)
	if err != nil {
		t.Fatal(err)
	}

	if first.Chunks != second.Chunks {
		t.Errorf("rerun wrote %d chunks, first run wrote %d", second.Chunks, first.Chunks)
	}
	// Upserts overwrite by id: the number of distinct points must not grow.
	if len(store.points) != len(firstKeys) {
		t.Errorf("rerun grew the point set from %d to %d", len(firstKeys), len(store.points))
	}
}

func TestIngest_ChunkFailureContinues(t *testing.T) {
	failOnce := true
	emb := &mockEmbedder{
		embedFunc: func(ctx context.Context, text string) ([]float32, error) {
			if failOnce {
				failOnce = false
				return nil, errors.New("quota exceeded")
			}
			return []float32{0.5}, nil
		},
	}
	store := &mockStore{}
	p := newTestPipeline(t, emb, store)

	article := record.Article{PMID: "21", Title: "t", Abstract: strings.Repeat("z", 700)}
	summary, err := p.Ingest(context.Background(), []record.Source{article}, "pubmed_abstracts", "pubmed", 0)
	if err != nil {
		t.Fatal(err)
	}

	if summary.Chunks != 2 {
		t.Errorf("Chunks = %d, want 2 (one of three failed)", summary.Chunks)
	}
	if len(summary.Errors) != 1 {
		t.Fatalf("Errors = %d, want 1", len(summary.Errors))
	}
	if summary.Errors[0].ChunkID != "pubmed_21_0" {
		t.Errorf("failed chunk id = %q, want pubmed_21_0", summary.Errors[0].ChunkID)
	}
}

func TestIngest_UpsertFailureContinues(t *testing.T) {
	calls := 0
	store := &mockStore{
		upsertFunc: func(ctx context.Context, collection, id string, v []float32, d string, p map[string]any) error {
			calls++
			if calls == 2 {
				return errors.New("disk full")
			}
			return nil
		},
	}
	p := newTestPipeline(t, &mockEmbedder{}, store)

	article := record.Article{PMID: "31", Title: "t", Abstract: strings.Repeat("q", 700)}
	summary, err := p.Ingest(context.Background(), []record.Source{article}, "pubmed_abstracts", "pubmed", 0)
	if err != nil {
		t.Fatal(err)
	}

	if summary.Chunks != 2 {
		t.Errorf("Chunks = %d, want 2", summary.Chunks)
	}
	if len(summary.Errors) != 1 || summary.Errors[0].ChunkID != "pubmed_31_1" {
		t.Errorf("unexpected error list: %+v", summary.Errors)
	}
}

func TestIngest_RespectsLimit(t *testing.T) {
	store := &mockStore{}
	p := newTestPipeline(t, &mockEmbedder{}, store)

	var records []record.Source
	for i := 0; i < 10; i++ {
		records = append(records, record.Article{
			PMID: fmt.Sprintf("%d", i), Title: "t", Abstract: "short abstract",
		})
	}

	summary, err := p.Ingest(context.Background(), records, "pubmed_abstracts", "pubmed", 3)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Processed != 3 {
		t.Errorf("Processed = %d, want 3", summary.Processed)
	}
}

func TestIngest_CollectionFailureIsFatal(t *testing.T) {
	store := &mockStore{
		ensureFunc: func(ctx context.Context, name string) error {
			return errors.New("connection refused")
		},
	}
	p := newTestPipeline(t, &mockEmbedder{}, store)

	_, err := p.Ingest(context.Background(), []record.Source{
		record.Article{PMID: "1", Title: "t", Abstract: "text"},
	}, "pubmed_abstracts", "pubmed", 0)
	if err == nil {
		t.Fatal("expected error when the collection cannot be created")
	}
}

func TestIngest_TrialPayload(t *testing.T) {
	store := &mockStore{}
	p := newTestPipeline(t, &mockEmbedder{}, store)

	trial := record.Trial{
		NCTID:     "NCT01234567",
		Title:     "A study",
		Condition: "Oncology",
		Status:    "Recruiting",
		Phase:     "PHASE2",
		URL:       "https://clinicaltrials.gov/study/NCT01234567",
	}

	_, err := p.Ingest(context.Background(), []record.Source{trial}, "clinical_trials", "trial", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(store.calls) == 0 {
		t.Fatal("no chunks upserted for trial")
	}

	first := store.calls[0]
	if !strings.HasPrefix(first.id, "trial_NCT01234567_") {
		t.Errorf("trial chunk id = %q", first.id)
	}
	if first.payload["condition"] != "Oncology" {
		t.Errorf("trial payload missing condition: %+v", first.payload)
	}
	if !strings.Contains(first.document, "Condition: Oncology") {
		t.Errorf("trial body text missing condition field: %q", first.document)
	}
}
