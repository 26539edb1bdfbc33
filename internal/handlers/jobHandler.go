package handlers

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pharma-intellect/pharmarag/internal/api"
	"github.com/pharma-intellect/pharmarag/internal/config"
	"github.com/pharma-intellect/pharmarag/internal/domain/jobmodel"
	"github.com/pharma-intellect/pharmarag/internal/job"
	"github.com/pharma-intellect/pharmarag/internal/metrics"
	"github.com/pharma-intellect/pharmarag/pkg/logging"
)

// Handler owns the HTTP-facing side of job creation. One instance is
// built in main and handed to the server; there is no package state
// beyond the shared request logger.
type Handler struct {
	service *job.Service
	logger  *logging.Logger
}

func NewHandler(jobService *job.Service) *Handler {
	return &Handler{
		service: jobService,
		logger:  logging.NewLogger("JobHandler"),
	}
}

func (h *Handler) createNewJob(newJob newJobData) {
	log := h.logger.With("traceId", newJob.traceId, "jobId", newJob.id)
	log.Info("creating new job", "type", newJob.jobType)
	h.pushToJobChannel(newJob)
	if newJob.isNewClient {
		log.Info("initializing new client history")
		h.initNewClient(newJob.clientId, newJob.traceId)
	}
}

func (h *Handler) getJobStatus(id string, traceId string) (result jobmodel.Job, isFound bool) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	return h.service.JobStore.GetJob(ctxC, id)
}

func (h *Handler) validateQueryRequest(queryReq api.QueryRequest) bool {
	h.logger.Debug("validating query request", "clientId", queryReq.ClientID)
	if queryReq.Question == "" {
		return false
	}
	if queryReq.ClientID == "" {
		return true
	}
	return h.service.HistoryStore.ValidateClientId(context.Background(), queryReq.ClientID)
}

// private methods
func (h *Handler) pushToJobChannel(newJob newJobData) {

	_job := jobmodel.Job{}
	_job.Id = newJob.id
	_job.CreatedTime = time.Now()
	_job.TraceId = newJob.traceId
	_job.Status = jobmodel.JobStatusQueued
	_job.JobType = newJob.jobType

	switch newJob.jobType {
	case jobmodel.JobTypeCollect:
		_job.CurrentStep = jobmodel.CollectInit
	case jobmodel.JobTypeIngest:
		_job.CurrentStep = jobmodel.IngestInit
	default:
		_job.CurrentStep = jobmodel.QueryInit
		_job.ClientId = newJob.clientId
		_job.JobPayload.Question = newJob.question
	}

	//metrics
	metrics.IncrementJobsInQueue()

	h.service.JobChannel <- _job //this is a blocking send to prevent the system from being overwhelmed
	h.logger.Info("created new job", "jobId", _job.Id)

	// A new worker is requested every N queued requests. Collection and
	// ingestion jobs always request one: both can run for minutes
	// against external APIs and would otherwise starve query jobs.
	accurateCount := atomic.AddInt64(&h.service.RequestCount, 1)
	if accurateCount%config.RequestsPerNewWorkerCount == 0 || _job.JobType != jobmodel.JobTypeQuery {
		metrics.StartDispatcherSignalCount()
		h.logger.Debug("dispatcher signal", "requestCount", accurateCount)
		h.service.DispatcherChannel <- true
	}
}

func (h *Handler) initNewClient(clientId string, traceId string) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	if err := h.service.HistoryStore.InitNewClient(ctxC, clientId); err != nil {
		h.logger.Error("error initiating new client history", "clientId", clientId, "error", err)
	}
}
