package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/pharma-intellect/pharmarag/internal/domain/record"
	"github.com/pharma-intellect/pharmarag/internal/kb/chunker"
	"github.com/pharma-intellect/pharmarag/internal/rag/embedding"
	"github.com/pharma-intellect/pharmarag/internal/rag/vectorstore"
	"github.com/pharma-intellect/pharmarag/pkg/logging"
)

// ItemError records one chunk that failed to embed or upsert. The rest
// of the batch keeps going; there is no rollback, reruns repair gaps
// because chunk ids are deterministic.
type ItemError struct {
	ChunkID string
	Err     error
}

// Summary is the batch outcome: how many records produced chunks, how
// many were skipped for having no text, how many chunks landed in the
// store, and every per-chunk failure.
type Summary struct {
	Processed int
	Skipped   int
	Chunks    int
	Errors    []ItemError
}

type Pipeline struct {
	chunker  *chunker.Chunker
	embedder embedding.Embedder
	store    vectorstore.Store
	logger   *logging.Logger
}

func New(c *chunker.Chunker, e embedding.Embedder, s vectorstore.Store) *Pipeline {
	return &Pipeline{
		chunker:  c,
		embedder: e,
		store:    s,
		logger:   logging.NewLogger("ingest"),
	}
}

// Ingest chunks, embeds, and upserts records into collection in order.
// limit caps how many records are processed; zero or negative means no
// cap. Only a missing collection is fatal; every per-chunk failure is
// logged, collected, and skipped.
func (p *Pipeline) Ingest(ctx context.Context, records []record.Source, collection, prefix string, limit int) (Summary, error) {
	var summary Summary

	if err := p.store.EnsureCollection(ctx, collection); err != nil {
		return summary, fmt.Errorf("ensuring collection %s: %w", collection, err)
	}

	if limit > 0 && len(records) > limit {
		p.logger.Info("Capping ingestion batch", "collection", collection, "limit", limit, "total", len(records))
		records = records[:limit]
	}

	for i, rec := range records {
		body := rec.BodyText()
		if strings.TrimSpace(body) == "" {
			summary.Skipped++
			continue
		}

		chunks := p.chunker.Split(body)
		if len(chunks) == 0 {
			summary.Skipped++
			continue
		}

		for idx, chunk := range chunks {
			chunkID := chunker.ChunkID(prefix, rec.ID(), idx)

			vector, err := p.embedder.EmbedDocument(ctx, chunk)
			if err != nil {
				p.logger.Warn("Error embedding chunk", "chunk", chunkID, "error", err)
				summary.Errors = append(summary.Errors, ItemError{ChunkID: chunkID, Err: err})
				continue
			}

			payload := rec.Payload()
			payload["chunk_idx"] = idx

			if err := p.store.Upsert(ctx, collection, chunkID, vector, chunk, payload); err != nil {
				p.logger.Warn("Error upserting chunk", "chunk", chunkID, "error", err)
				summary.Errors = append(summary.Errors, ItemError{ChunkID: chunkID, Err: err})
				continue
			}
			summary.Chunks++
		}
		summary.Processed++

		if (i+1)%10 == 0 {
			p.logger.Info("Ingestion progress", "collection", collection,
				"records", i+1, "chunks", summary.Chunks)
		}
	}

	p.logger.Info("Ingestion finished", "collection", collection,
		"processed", summary.Processed, "skipped", summary.Skipped,
		"chunks", summary.Chunks, "errors", len(summary.Errors))
	return summary, nil
}
