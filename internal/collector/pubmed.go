package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pharma-intellect/pharmarag/internal/config"
	"github.com/pharma-intellect/pharmarag/internal/domain/record"
	"github.com/pharma-intellect/pharmarag/pkg/logging"
)

// PubMed queries the NCBI E-utilities: esearch for PMIDs matching a
// keyword, then a batched summary fetch for the article metadata.
type PubMed struct {
	baseURL string
	client  *http.Client
	// NCBI allows 3 requests per second without an API key.
	limiter *rate.Limiter
	logger  *logging.Logger
	now     func() time.Time
}

func NewPubMed(baseURL string) *PubMed {
	return &PubMed{
		baseURL: baseURL,
		client:  newHTTPClient(),
		limiter: rate.NewLimiter(rate.Limit(3), 3),
		logger:  logging.NewLogger("collector.pubmed"),
		now:     time.Now,
	}
}

type esearchResponse struct {
	ESearchResult struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type articleSummary struct {
	UID      string `json:"uid"`
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	PubDate  string `json:"pubdate"`
	Authors  []struct {
		Name string `json:"name"`
	} `json:"authors"`
}

type summaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

// FetchArticles collects up to maxResults articles per keyword. A
// keyword whose search or fetch fails is logged and skipped; only
// context cancellation aborts the whole run.
func (p *PubMed) FetchArticles(ctx context.Context, keywords []string, maxResults int) ([]record.Article, error) {
	var articles []record.Article
	for _, keyword := range keywords {
		if err := ctx.Err(); err != nil {
			return articles, err
		}
		p.logger.Info("searching PubMed", "keyword", keyword)

		ids, total, err := p.search(ctx, keyword, maxResults)
		if err != nil {
			p.logger.Error("PubMed search failed", "keyword", keyword, "error", err)
			continue
		}
		p.logger.Info("PubMed search done", "keyword", keyword, "found", len(ids), "total", total)
		if len(ids) == 0 {
			p.logger.Warn("no articles found", "keyword", keyword)
			continue
		}

		fetched, err := p.fetchSummaries(ctx, ids)
		if err != nil {
			p.logger.Error("PubMed fetch failed", "keyword", keyword, "error", err)
			continue
		}

		collectedAt := p.now().Format(time.RFC3339)
		for _, a := range fetched {
			names := make([]string, 0, len(a.Authors))
			for _, au := range a.Authors {
				names = append(names, au.Name)
			}
			articles = append(articles, record.Article{
				PMID:        a.UID,
				Title:       orNA(a.Title),
				Abstract:    orNA(a.Abstract),
				PubDate:     orNA(a.PubDate),
				Authors:     strings.Join(names, ", "),
				Keyword:     keyword,
				URL:         fmt.Sprintf("https://pubmed.ncbi.nlm.nih.gov/%s/", a.UID),
				CollectedAt: collectedAt,
			})
		}
	}
	p.logger.Info("PubMed collection complete", "articles", len(articles))
	return articles, nil
}

func (p *PubMed) search(ctx context.Context, keyword string, maxResults int) ([]string, string, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {keyword},
		"retmax":  {strconv.Itoa(maxResults)},
		"retmode": {"json"},
	}

	var parsed esearchResponse
	if err := p.getJSON(ctx, p.baseURL+"esearch.fcgi", params, config.SearchTimeout, &parsed); err != nil {
		return nil, "", err
	}

	ids := parsed.ESearchResult.IDList
	if len(ids) > maxResults {
		ids = ids[:maxResults]
	}
	return ids, parsed.ESearchResult.Count, nil
}

func (p *PubMed) fetchSummaries(ctx context.Context, ids []string) ([]articleSummary, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"json"},
	}

	var parsed summaryResponse
	if err := p.getJSON(ctx, p.baseURL+"esummary.fcgi", params, config.FetchTimeout, &parsed); err != nil {
		return nil, err
	}

	// Walk the id list rather than the result map so the collection
	// order is stable and the "uids" bookkeeping key is skipped.
	summaries := make([]articleSummary, 0, len(ids))
	for _, id := range ids {
		raw, ok := parsed.Result[id]
		if !ok {
			continue
		}
		var a articleSummary
		if err := json.Unmarshal(raw, &a); err != nil {
			p.logger.Warn("skipping unparseable article", "pmid", id, "error", err)
			continue
		}
		summaries = append(summaries, a)
	}
	return summaries, nil
}

func (p *PubMed) getJSON(ctx context.Context, endpoint string, params url.Values, timeout time.Duration, out any) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, endpoint)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// orNA mirrors the upstream convention of filling absent fields with
// the literal "N/A".
func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
