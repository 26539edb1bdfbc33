package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pharma-intellect/pharmarag/internal/collector"
	"github.com/pharma-intellect/pharmarag/internal/config"
	"github.com/pharma-intellect/pharmarag/internal/job"
	"github.com/pharma-intellect/pharmarag/internal/metrics"
	"github.com/pharma-intellect/pharmarag/internal/rag"
	"github.com/pharma-intellect/pharmarag/pkg/logging"
)

// CollectorService is what the pool needs from the data collector.
type CollectorService interface {
	CollectAll(ctx context.Context) (collector.Result, error)
}

// Pool is an elastic worker pool over the shared job channel. The
// dispatcher adds workers on demand up to MaxWorkerCount; idle workers
// retire themselves down to the minimum.
type Pool struct {
	jobService       *job.Service
	ragService       rag.Service
	collectorService CollectorService

	stopWorkerChannel  chan bool
	workerWaitGroup    *sync.WaitGroup
	currentWorkerCount int64
	minWorkerCount     int64
	logger             *logging.Logger
}

func NewPool(jobService *job.Service, ragService rag.Service, collectorService CollectorService) *Pool {
	return &Pool{
		jobService:       jobService,
		ragService:       ragService,
		collectorService: collectorService,
		minWorkerCount:   config.MinWorkerCount,
		logger:           logging.NewLogger("WorkerPool"),
	}
}

func (p *Pool) Start(stopWorkerChan chan bool, waitGroup *sync.WaitGroup) {
	p.stopWorkerChannel = stopWorkerChan
	p.workerWaitGroup = waitGroup
	p.logger.Info("initializing worker pool")
	go p.dispatcher()
}

func (p *Pool) dispatcher() {
	p.createWorker()
	p.logger.Info("dispatcher started")
	for range p.jobService.DispatcherChannel {
		if atomic.LoadInt64(&p.currentWorkerCount) < config.MaxWorkerCount {
			p.logger.Info("creating new worker", "workerCount", atomic.LoadInt64(&p.currentWorkerCount))
			p.createWorker()
		}
	}
}

func (p *Pool) createWorker() {
	p.workerWaitGroup.Add(1)
	go p.worker()
	atomic.AddInt64(&p.currentWorkerCount, 1)
	metrics.IncrementActiveWorkerCount()
	p.logger.Info("created new worker")
}

func (p *Pool) worker() {
	for {
		select {
		case currentJob := <-p.jobService.JobChannel:
			p.executeJob(currentJob)
			metrics.DecrementJobsInQueue()

		case <-p.stopWorkerChannel:
			p.removeWorker("stop worker signal received")
			return

		case <-time.After(config.IdleWorkerTimeout):
			// Idle for too long; retire unless we are the floor.
			if atomic.LoadInt64(&p.currentWorkerCount) > atomic.LoadInt64(&p.minWorkerCount) {
				p.removeWorker("idle worker timeout")
				return
			}
		}
	}
}

func (p *Pool) removeWorker(reason string) {
	p.workerWaitGroup.Done()
	atomic.AddInt64(&p.currentWorkerCount, -1)
	p.logger.Info("removed worker", "reason", reason, "workerCount", atomic.LoadInt64(&p.currentWorkerCount))
	metrics.DecrementActiveWorkerCount()
}
