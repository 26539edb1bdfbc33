package api

import (
	"encoding/json"
	"time"
)

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	ClientId  string            `json:"client_id" example:"client_550"`
	Result    Result            `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type Citation struct {
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Source    string  `json:"source"`
	Relevance float64 `json:"relevance"`
}

type RAGResponse struct {
	Question   string     `json:"question"`
	Answer     string     `json:"answer"`
	Sources    []Citation `json:"sources"`
	NumSources int        `json:"num_sources"`
}

type CollectionResult struct {
	ArticlesCollected int `json:"articles_collected"`
	TrialsCollected   int `json:"trials_collected"`
	ChunksIndexed     int `json:"chunks_indexed"`
}

type Result struct {
	Status              string            `json:"status"`
	RAGExternalResponse *RAGResponse      `json:"rag_response,omitempty"`
	Collection          *CollectionResult `json:"collection,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

// HistoryResponse carries a client's recent results, newest first.
// Entries are the stored payload JSON, passed through untouched.
type HistoryResponse struct {
	ClientId string            `json:"client_id"`
	Results  []json.RawMessage `json:"results"`
}

// requests---------------------

type QueryRequest struct {
	Question string `json:"question" validate:"required"`
	ClientID string `json:"clientID,omitempty"`
}

type JobStatusRequest struct {
	JobId string `json:"job_id" validate:"required"`
}
