package retriever

import (
	"context"
	"errors"

	"github.com/pharma-intellect/pharmarag/internal/config"
	"github.com/pharma-intellect/pharmarag/internal/rag/embedding"
	"github.com/pharma-intellect/pharmarag/internal/rag/vectorstore"
	"github.com/pharma-intellect/pharmarag/pkg/logging"
)

// Document is one retrieved chunk for the lifetime of a single query.
type Document struct {
	Text      string
	Metadata  map[string]string
	Relevance float64
}

type source struct {
	collection string
	relevance  float64
}

// Retriever queries both knowledge-base collections and concatenates
// results in fixed collection order. Relevance is a constant per source
// rather than the store's distance: configured priority, not true ranking.
// RANK_BY_SIMILARITY switches the score to the store's similarity
// instead, as a documented deviation.
type Retriever struct {
	embedder         embedding.Embedder
	store            vectorstore.Store
	totalSources     int
	rankBySimilarity bool
	sources          []source
	logger           *logging.Logger
}

func New(e embedding.Embedder, s vectorstore.Store, set config.Settings) *Retriever {
	return &Retriever{
		embedder:         e,
		store:            s,
		totalSources:     set.NumSourcesToRetrieve,
		rankBySimilarity: set.RankBySimilarity,
		sources: []source{
			{collection: config.PubMedCollection, relevance: config.PubMedRelevance},
			{collection: config.TrialsCollection, relevance: config.TrialsRelevance},
		},
		logger: logging.NewLogger("retriever"),
	}
}

// Retrieve embeds the query once and asks each collection for its top
// results. A failing collection contributes nothing and is never fatal;
// an empty result list is a valid outcome the caller must handle.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]Document, error) {
	if query == "" {
		return nil, errors.New("empty query")
	}

	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	k := r.perCollectionK()
	var docs []Document
	for _, src := range r.sources {
		hits, err := r.store.Query(ctx, src.collection, vector, k)
		if err != nil {
			r.logger.Warn("Error querying collection, skipping", "collection", src.collection, "error", err)
			continue
		}
		for _, hit := range hits {
			relevance := src.relevance
			if r.rankBySimilarity {
				relevance = float64(hit.Score)
			}
			docs = append(docs, Document{
				Text:      hit.Document,
				Metadata:  hit.Payload,
				Relevance: relevance,
			})
		}
		r.logger.Debug("Collection results", "collection", src.collection, "hits", len(hits))
	}

	r.logger.Info("Retrieval complete", "query_len", len(query), "documents", len(docs))
	return docs, nil
}

// perCollectionK splits the requested source total evenly across
// collections, with a floor of one and a hard cap per collection.
func (r *Retriever) perCollectionK() int {
	k := r.totalSources / len(r.sources)
	if k < 1 {
		k = 1
	}
	if k > config.MaxPerCollection {
		k = config.MaxPerCollection
	}
	return k
}
