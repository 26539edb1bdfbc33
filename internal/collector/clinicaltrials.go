package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pharma-intellect/pharmarag/internal/config"
	"github.com/pharma-intellect/pharmarag/internal/domain/record"
	"github.com/pharma-intellect/pharmarag/pkg/logging"
)

// Trials queries the ClinicalTrials.gov v2 studies API, one request
// per condition.
type Trials struct {
	baseURL string
	client  *http.Client
	logger  *logging.Logger
	now     func() time.Time
}

func NewTrials(baseURL string) *Trials {
	return &Trials{
		baseURL: baseURL,
		client:  newHTTPClient(),
		logger:  logging.NewLogger("collector.trials"),
		now:     time.Now,
	}
}

type studiesResponse struct {
	Studies    []study `json:"studies"`
	TotalCount int     `json:"totalCount"`
}

type study struct {
	ProtocolSection struct {
		IdentificationModule struct {
			NCTID      string `json:"nctId"`
			BriefTitle string `json:"briefTitle"`
		} `json:"identificationModule"`
		StatusModule struct {
			OverallStatus   string `json:"overallStatus"`
			StartDateStruct struct {
				Date string `json:"date"`
			} `json:"startDateStruct"`
		} `json:"statusModule"`
		DesignModule struct {
			Phases []string `json:"phases"`
		} `json:"designModule"`
		OutcomesModule struct {
			PrimaryOutcomes []struct {
				Measure string `json:"measure"`
			} `json:"primaryOutcomes"`
		} `json:"outcomesModule"`
		ArmsInterventionsModule struct {
			Interventions []struct {
				Name string `json:"name"`
			} `json:"interventions"`
		} `json:"armsInterventionsModule"`
	} `json:"protocolSection"`
}

const trialFields = "NCTId,BriefTitle,Condition,InterventionName,PrimaryOutcomeMeasure,OverallStatus,Phase,StartDate"

// FetchTrials collects up to maxResults trials per condition. Failed
// conditions are logged and skipped; only context cancellation aborts
// the run.
func (t *Trials) FetchTrials(ctx context.Context, conditions []string, maxResults int) ([]record.Trial, error) {
	// The v2 API caps pageSize at 100.
	if maxResults > 100 {
		maxResults = 100
	}

	var trials []record.Trial
	for _, condition := range conditions {
		if err := ctx.Err(); err != nil {
			return trials, err
		}
		t.logger.Info("searching ClinicalTrials.gov", "condition", condition)

		parsed, err := t.query(ctx, condition, maxResults)
		if err != nil {
			t.logger.Error("trials query failed", "condition", condition, "error", err)
			continue
		}
		t.logger.Info("trials query done", "condition", condition,
			"found", len(parsed.Studies), "total", parsed.TotalCount)
		if len(parsed.Studies) == 0 {
			t.logger.Warn("no trials found", "condition", condition)
			continue
		}

		collectedAt := t.now().Format(time.RFC3339)
		for _, s := range parsed.Studies {
			trials = append(trials, t.toRecord(s, condition, collectedAt))
		}
	}
	t.logger.Info("trials collection complete", "trials", len(trials))
	return trials, nil
}

func (t *Trials) query(ctx context.Context, condition string, maxResults int) (*studiesResponse, error) {
	params := url.Values{
		"query.cond": {condition},
		"pageSize":   {strconv.Itoa(maxResults)},
		"fields":     {trialFields},
	}

	reqCtx, cancel := context.WithTimeout(ctx, config.SearchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, t.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from studies API", resp.StatusCode)
	}
	var parsed studiesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

func (t *Trials) toRecord(s study, condition, collectedAt string) record.Trial {
	ps := s.ProtocolSection

	outcomes := make([]string, 0, len(ps.OutcomesModule.PrimaryOutcomes))
	for _, o := range ps.OutcomesModule.PrimaryOutcomes {
		outcomes = append(outcomes, orNA(o.Measure))
	}
	interventions := make([]string, 0, len(ps.ArmsInterventionsModule.Interventions))
	for _, iv := range ps.ArmsInterventionsModule.Interventions {
		interventions = append(interventions, orNA(iv.Name))
	}

	phase := "N/A"
	if len(ps.DesignModule.Phases) > 0 {
		phase = ps.DesignModule.Phases[0]
	}

	return record.Trial{
		NCTID:           orNA(ps.IdentificationModule.NCTID),
		Title:           orNA(ps.IdentificationModule.BriefTitle),
		Condition:       condition,
		Status:          orNA(ps.StatusModule.OverallStatus),
		Phase:           phase,
		StartDate:       orNA(ps.StatusModule.StartDateStruct.Date),
		PrimaryOutcomes: jsonList(outcomes),
		Interventions:   jsonList(interventions),
		URL:             fmt.Sprintf("https://clinicaltrials.gov/study/%s", ps.IdentificationModule.NCTID),
		CollectedAt:     collectedAt,
	}
}

// jsonList serializes a string list into the single CSV cell format
// the knowledge base files use.
func jsonList(items []string) string {
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}
