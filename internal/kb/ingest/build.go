package ingest

import (
	"context"
	"os"

	"github.com/pharma-intellect/pharmarag/internal/config"
	"github.com/pharma-intellect/pharmarag/internal/domain/record"
	"github.com/pharma-intellect/pharmarag/pkg/logging"
)

// Report aggregates the per-collection summaries of one knowledge-base
// build.
type Report struct {
	Articles Summary
	Trials   Summary
}

func (r Report) TotalChunks() int {
	return r.Articles.Chunks + r.Trials.Chunks
}

// BuildKnowledgeBase loads the collected CSV files and ingests both
// collections. A missing CSV file skips that source, matching the
// collector-may-not-have-run case; a store failure is fatal.
func BuildKnowledgeBase(ctx context.Context, p *Pipeline, set config.Settings) (Report, error) {
	logger := logging.NewLogger("kb_build")
	var report Report

	articles, err := record.ReadArticlesCSV(config.ArticlesCSV)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Error("Error loading article data", "error", err)
		} else {
			logger.Warn("PubMed data file not found, skipping", "path", config.ArticlesCSV)
		}
	} else {
		articles = record.Deduplicate(articles, func(a record.Article) string { return a.Title })
		report.Articles, err = p.Ingest(ctx, asSources(articles), config.PubMedCollection,
			config.PubMedChunkPrefix, set.ArticleIngestLimit)
		if err != nil {
			return report, err
		}
	}

	trials, err := record.ReadTrialsCSV(config.TrialsCSV)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Error("Error loading trial data", "error", err)
		} else {
			logger.Warn("Clinical trials data file not found, skipping", "path", config.TrialsCSV)
		}
	} else {
		trials = record.Deduplicate(trials, func(t record.Trial) string { return t.Title })
		report.Trials, err = p.Ingest(ctx, asSources(trials), config.TrialsCollection,
			config.TrialChunkPrefix, set.TrialIngestLimit)
		if err != nil {
			return report, err
		}
	}

	logger.Info("Knowledge base build complete",
		"pubmed_chunks", report.Articles.Chunks, "trial_chunks", report.Trials.Chunks)
	return report, nil
}

func asSources[T record.Source](records []T) []record.Source {
	out := make([]record.Source, len(records))
	for i, r := range records {
		out[i] = r
	}
	return out
}
