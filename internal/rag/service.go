package rag

import (
	"context"
	"net/http"
	"time"

	"github.com/pharma-intellect/pharmarag/internal/config"
	"github.com/pharma-intellect/pharmarag/internal/domain/jobmodel"
	"github.com/pharma-intellect/pharmarag/internal/kb/ingest"
	"github.com/pharma-intellect/pharmarag/internal/metrics"
	"github.com/pharma-intellect/pharmarag/internal/rag/compose"
	"github.com/pharma-intellect/pharmarag/internal/rag/retriever"
	"github.com/pharma-intellect/pharmarag/pkg/logging"
)

// Service is the contract the worker pool drives. Workers never see the
// retriever, composer, or vector store directly.
type Service interface {
	AnswerQuestion(ctx context.Context, job jobmodel.Job) jobmodel.Job
	BuildKnowledgeBase(ctx context.Context, job jobmodel.Job) jobmodel.Job
}

type service struct {
	retriever *retriever.Retriever
	composer  *compose.Composer
	pipeline  *ingest.Pipeline
	settings  config.Settings
	logger    *logging.Logger
}

// NewService wires the query and ingestion paths. All dependencies are
// passed in; nothing here reaches for process-wide handles.
func NewService(r *retriever.Retriever, c *compose.Composer, p *ingest.Pipeline, set config.Settings) Service {
	return &service{
		retriever: r,
		composer:  c,
		pipeline:  p,
		settings:  set,
		logger:    logging.NewLogger("rag_service"),
	}
}

// AnswerQuestion runs the retrieve-then-compose cycle. Retrieval
// failures degrade to the composer's templated output instead of
// failing the job; the only hard error is an empty question.
func (s *service) AnswerQuestion(ctx context.Context, job jobmodel.Job) jobmodel.Job {
	log := s.logger.With("traceId", job.TraceId, "jobId", job.Id)

	if job.JobPayload.Question == "" {
		return s.jobError(job, "EMPTY_QUESTION", false)
	}

	processCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	job.CurrentStep = jobmodel.RAGCall

	docs := s.executeRetrievalStep(processCtx, log, &job)
	answer := s.executeComposeStep(processCtx, log, &job, docs)

	job.JobPayload.Answer = answer
	job.JobPayload.Sources = toCitations(docs)
	job.JobPayload.NumSources = len(docs)
	job.CurrentStep = jobmodel.Complete
	return job
}

// BuildKnowledgeBase ingests the collected CSV data into the vector
// store. A store failure is the one fatal case.
func (s *service) BuildKnowledgeBase(ctx context.Context, job jobmodel.Job) jobmodel.Job {
	log := s.logger.With("traceId", job.TraceId, "jobId", job.Id)
	job.CurrentStep = jobmodel.IngestProcessing

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("kb_build", time.Since(start)) }()

	report, err := ingest.BuildKnowledgeBase(ctx, s.pipeline, s.settings)
	if err != nil {
		log.Error("Knowledge base build failed", "error", err)
		return s.jobError(job, "INGESTION_FAILURE", true)
	}

	job.JobPayload.ChunksIndexed = report.TotalChunks()
	job.CurrentStep = jobmodel.Complete
	return job
}

func (s *service) executeRetrievalStep(ctx context.Context, log *logging.Logger, job *jobmodel.Job) []retriever.Document {
	job.CurrentStep = jobmodel.VectorDBCall

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("retrieval", time.Since(start)) }()

	docs, err := s.retriever.Retrieve(ctx, job.JobPayload.Question)
	if err != nil {
		// Total retrieval failure: the composer turns an empty document
		// list into the no-information answer.
		log.Error("Retrieval failed, answering without context", "error", err)
		return nil
	}
	return docs
}

func (s *service) executeComposeStep(ctx context.Context, log *logging.Logger, job *jobmodel.Job, docs []retriever.Document) string {
	job.CurrentStep = jobmodel.LLMCall
	log.Debug("Composing answer", "documents", len(docs))

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	return s.composer.Compose(ctx, job.JobPayload.Question, docs)
}

func (s *service) jobError(job jobmodel.Job, message string, canRetry bool) jobmodel.Job {
	s.logger.Error(message, "jobId", job.Id)

	job.Error = jobmodel.JobError{
		Code:    http.StatusInternalServerError,
		Message: message,
		Retry:   canRetry,
	}
	job.Status = jobmodel.JobStatusError
	return job
}

func toCitations(docs []retriever.Document) []jobmodel.Citation {
	if len(docs) == 0 {
		return nil
	}
	citations := make([]jobmodel.Citation, 0, len(docs))
	for _, doc := range docs {
		title := doc.Metadata["title"]
		if title == "" {
			title = "Unknown"
		}
		url := doc.Metadata["url"]
		if url == "" {
			url = "#"
		}
		source := doc.Metadata["source"]
		if source == "" {
			source = "Unknown"
		}
		citations = append(citations, jobmodel.Citation{
			Title:     title,
			URL:       url,
			Source:    source,
			Relevance: doc.Relevance,
		})
	}
	return citations
}
