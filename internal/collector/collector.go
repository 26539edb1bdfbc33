package collector

import (
	"context"

	"github.com/pharma-intellect/pharmarag/internal/config"
	"github.com/pharma-intellect/pharmarag/internal/domain/record"
	"github.com/pharma-intellect/pharmarag/pkg/logging"
)

// Service orchestrates a full collection run: both upstream APIs,
// dedup, and the CSV snapshots the ingestion pipeline reads.
type Service struct {
	pubmed   *PubMed
	trials   *Trials
	settings config.Settings
	logger   *logging.Logger

	articlesPath string
	trialsPath   string
}

// Result is the per-run tally reported back to the caller.
type Result struct {
	Articles int
	Trials   int
}

func NewService(set config.Settings) *Service {
	return &Service{
		pubmed:       NewPubMed(config.PubMedBaseURL),
		trials:       NewTrials(config.ClinicalTrialsBaseURL),
		settings:     set,
		logger:       logging.NewLogger("collector"),
		articlesPath: config.ArticlesCSV,
		trialsPath:   config.TrialsCSV,
	}
}

// CollectAll runs both collectors using the configured keyword and
// condition lists. A collector returning zero records is not an error;
// failing to persist a non-empty batch is.
func (s *Service) CollectAll(ctx context.Context) (Result, error) {
	var res Result

	articles, err := s.pubmed.FetchArticles(ctx, s.settings.PubMedKeywords, s.settings.PubMedMaxResults)
	if err != nil {
		return res, err
	}
	articles = record.Deduplicate(articles, func(a record.Article) string { return a.Title })
	if err := record.WriteArticlesCSV(s.articlesPath, articles); err != nil {
		return res, err
	}
	res.Articles = len(articles)

	trials, err := s.trials.FetchTrials(ctx, s.settings.TrialConditions, s.settings.TrialsMaxResults)
	if err != nil {
		return res, err
	}
	trials = record.Deduplicate(trials, func(t record.Trial) string { return t.Title })
	if err := record.WriteTrialsCSV(s.trialsPath, trials); err != nil {
		return res, err
	}
	res.Trials = len(trials)

	s.logger.Info("collection run complete", "articles", res.Articles, "trials", res.Trials)
	return res, nil
}
