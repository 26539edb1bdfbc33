package jobmodel

import (
	"context"
	"time"
)

type JobStatus string
type InternalStatus string

type JobType string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "Error"

	QueryInit        InternalStatus = "Init"
	RAGCall          InternalStatus = "RAG"
	EmbeddingAPICall InternalStatus = "EmbeddingAPI"
	VectorDBCall     InternalStatus = "VectorDB"
	LLMCall          InternalStatus = "LLM"
	RedisCall        InternalStatus = "Redis"

	CollectInit       InternalStatus = "CollectInit"
	CollectProcessing InternalStatus = "CollectProcessing"
	IngestInit        InternalStatus = "IngestInit"
	IngestProcessing  InternalStatus = "IngestProcessing"
	Error             InternalStatus = "Error"

	Complete InternalStatus = "Complete"

	JobTypeQuery   JobType = "Query"
	JobTypeCollect JobType = "Collect"
	JobTypeIngest  JobType = "Ingest"
)

// Citation is one source reference attached to an answer.
type Citation struct {
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Source    string  `json:"source"`
	Relevance float64 `json:"relevance"`
}

type Job struct {
	Id          string         `json:"id"`
	ClientId    string         `json:"client_id"`
	TraceId     string         `json:"trace_id"`
	JobType     JobType        `json:"job_type"`
	JobPayload  JobPayload     `json:"job_payload"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type JobPayload struct {
	Question   string     `json:"question,omitempty"`
	Answer     string     `json:"answer,omitempty"`
	Sources    []Citation `json:"sources,omitempty"`
	NumSources int        `json:"num_sources,omitempty"`

	ArticlesCollected int `json:"articles_collected,omitempty"`
	TrialsCollected   int `json:"trials_collected,omitempty"`
	ChunksIndexed     int `json:"chunks_indexed,omitempty"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}

// HistoryStore keeps recent query results per client id, the service
// side of the original UI's session history.
type HistoryStore interface {
	ValidateClientId(ctx context.Context, id string) bool
	InitNewClient(ctx context.Context, id string) error
	TrySaveResult(ctx context.Context, id string, payload JobPayload) error
	GetRecentResults(ctx context.Context, clientId string) ([]string, error)
}
