package record

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var articleHeader = []string{
	"pmid", "title", "abstract", "pub_date", "authors", "source", "url", "keyword", "collected_date",
}

var trialHeader = []string{
	"nct_id", "title", "condition", "status", "phase", "start_date",
	"primary_outcomes", "interventions", "source", "url", "collected_date",
}

// WriteArticlesCSV persists collected articles, creating the data
// directory as needed. An empty slice writes nothing.
func WriteArticlesCSV(path string, articles []Article) error {
	if len(articles) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(articles))
	for _, a := range articles {
		rows = append(rows, []string{
			a.PMID, a.Title, a.Abstract, a.PubDate, a.Authors, SourcePubMed, a.URL, a.Keyword, a.CollectedAt,
		})
	}
	return writeCSV(path, articleHeader, rows)
}

func WriteTrialsCSV(path string, trials []Trial) error {
	if len(trials) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(trials))
	for _, t := range trials {
		rows = append(rows, []string{
			t.NCTID, t.Title, t.Condition, t.Status, t.Phase, t.StartDate,
			t.PrimaryOutcomes, t.Interventions, SourceTrials, t.URL, t.CollectedAt,
		})
	}
	return writeCSV(path, trialHeader, rows)
}

// ReadArticlesCSV loads the article file back for ingestion. Short or
// malformed rows are skipped, not fatal.
func ReadArticlesCSV(path string) ([]Article, error) {
	rows, err := readCSV(path, len(articleHeader))
	if err != nil {
		return nil, err
	}
	articles := make([]Article, 0, len(rows))
	for _, r := range rows {
		articles = append(articles, Article{
			PMID: r[0], Title: r[1], Abstract: r[2], PubDate: r[3],
			Authors: r[4], URL: r[6], Keyword: r[7], CollectedAt: r[8],
		})
	}
	return articles, nil
}

func ReadTrialsCSV(path string) ([]Trial, error) {
	rows, err := readCSV(path, len(trialHeader))
	if err != nil {
		return nil, err
	}
	trials := make([]Trial, 0, len(rows))
	for _, r := range rows {
		trials = append(trials, Trial{
			NCTID: r[0], Title: r[1], Condition: r[2], Status: r[3], Phase: r[4],
			StartDate: r[5], PrimaryOutcomes: r[6], Interventions: r[7],
			URL: r[9], CollectedAt: r[10],
		})
	}
	return trials, nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func readCSV(path string, wantFields int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading %s header: %w", path, err)
	}
	_ = header

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if len(row) < wantFields {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}
