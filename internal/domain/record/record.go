package record

import (
	"fmt"
	"strings"

	"github.com/pharma-intellect/pharmarag/internal/config"
)

// Source is one collected record: a PubMed article or a clinical trial.
// Implementations are immutable after collection; BodyText is the text
// that gets chunked and Payload is the metadata snapshot attached to
// every chunk of the record.
type Source interface {
	ID() string
	BodyText() string
	Payload() map[string]any
}

const (
	SourcePubMed = "PubMed"
	SourceTrials = "ClinicalTrials.gov"
)

type Article struct {
	PMID        string
	Title       string
	Abstract    string
	PubDate     string
	Authors     string
	Keyword     string
	URL         string
	CollectedAt string
}

func (a Article) ID() string { return a.PMID }

// BodyText returns the raw abstract. The upstream API reports missing
// abstracts as the literal "N/A"; those records carry no text to index.
func (a Article) BodyText() string {
	if a.Abstract == "N/A" {
		return ""
	}
	return a.Abstract
}

func (a Article) Payload() map[string]any {
	return map[string]any{
		"pmid":   a.PMID,
		"title":  TruncateTitle(a.Title),
		"url":    a.URL,
		"source": SourcePubMed,
	}
}

type Trial struct {
	NCTID           string
	Title           string
	Condition       string
	Status          string
	Phase           string
	StartDate       string
	PrimaryOutcomes string
	Interventions   string
	URL             string
	CollectedAt     string
}

func (t Trial) ID() string { return t.NCTID }

// BodyText synthesizes a display text from the structured trial fields,
// the unit the knowledge base chunks and embeds.
func (t Trial) BodyText() string {
	return fmt.Sprintf(
		"Title: %s\nCondition: %s\nStatus: %s\nPhase: %s\nStart Date: %s\nPrimary Outcomes: %s\nInterventions: %s",
		t.Title, t.Condition, t.Status, t.Phase, t.StartDate, t.PrimaryOutcomes, t.Interventions)
}

func (t Trial) Payload() map[string]any {
	return map[string]any{
		"nct_id":    t.NCTID,
		"title":     TruncateTitle(t.Title),
		"condition": t.Condition,
		"url":       t.URL,
		"source":    SourceTrials,
	}
}

func TruncateTitle(title string) string {
	if len(title) > config.TitleTruncateLen {
		return title[:config.TitleTruncateLen]
	}
	return title
}

// Deduplicate drops records whose identifier was already seen; the
// first occurrence wins. Records with an empty identifier or title are
// dropped outright as dirty rows.
func Deduplicate[T Source](records []T, title func(T) string) []T {
	seen := make(map[string]struct{}, len(records))
	out := make([]T, 0, len(records))
	for _, r := range records {
		id := r.ID()
		if id == "" || strings.TrimSpace(title(r)) == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, r)
	}
	return out
}
