package worker

import (
	"context"
	"net/http"
	"time"

	"github.com/pharma-intellect/pharmarag/internal/config"
	"github.com/pharma-intellect/pharmarag/internal/domain/jobmodel"
	"github.com/pharma-intellect/pharmarag/internal/metrics"
)

const (
	queryJobTimeout = 60 * time.Second
	// Collection and ingestion walk external APIs record by record.
	batchJobTimeout = 10 * time.Minute
)

func (p *Pool) executeJob(job jobmodel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureJobMetrics(string(job.Status), time.Since(start))
	}()

	timeout := queryJobTimeout
	if job.JobType != jobmodel.JobTypeQuery {
		timeout = batchJobTimeout
	}
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, timeout)
	defer cancel()

	log := p.logger.With("traceId", job.TraceId, "jobId", job.Id)
	log.Debug("processing job", "type", job.JobType)

	p.saveJobState(ctx, job, jobmodel.JobStatusRunning)

	switch job.JobType {
	case jobmodel.JobTypeCollect:
		job.CurrentStep = jobmodel.CollectProcessing
		job = p.collectData(ctx, job)

	case jobmodel.JobTypeIngest:
		job.CurrentStep = jobmodel.IngestProcessing
		job = p.ragService.BuildKnowledgeBase(ctx, job)

	default:
		job.CurrentStep = jobmodel.RAGCall
		job = p.ragService.AnswerQuestion(ctx, job)
		if job.Status != jobmodel.JobStatusError {
			if err := p.jobService.HistoryStore.TrySaveResult(ctx, job.ClientId, job.JobPayload); err != nil {
				log.Error("failed to save result history", "error", err)
			}
		}
	}

	job.EndTime = time.Now()
	finalStatus := jobmodel.JobStatusComplete
	if job.Status == jobmodel.JobStatusError {
		finalStatus = jobmodel.JobStatusError
	}
	p.saveJobState(ctx, job, finalStatus)
}

func (p *Pool) collectData(ctx context.Context, job jobmodel.Job) jobmodel.Job {
	res, err := p.collectorService.CollectAll(ctx)
	if err != nil {
		p.logger.Error("collection run failed", "jobId", job.Id, "error", err)
		job.Status = jobmodel.JobStatusError
		job.CurrentStep = jobmodel.Error
		job.Error = jobmodel.JobError{
			Code:    http.StatusInternalServerError,
			Message: "COLLECTION_FAILURE",
			Retry:   true,
		}
		return job
	}
	job.JobPayload.ArticlesCollected = res.Articles
	job.JobPayload.TrialsCollected = res.Trials
	job.CurrentStep = jobmodel.Complete
	return job
}

func (p *Pool) saveJobState(ctx context.Context, job jobmodel.Job, jobStatus jobmodel.JobStatus) {
	job.Status = jobStatus
	if err := p.jobService.JobStore.SaveJob(ctx, job); err != nil {
		p.logger.Error("failed to update job status", "jobId", job.Id, "error", err)
	}
}
