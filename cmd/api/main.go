package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/pharma-intellect/pharmarag/internal/collector"
	"github.com/pharma-intellect/pharmarag/internal/config"
	"github.com/pharma-intellect/pharmarag/internal/data/redisstore"
	"github.com/pharma-intellect/pharmarag/internal/data/store"
	"github.com/pharma-intellect/pharmarag/internal/domain/jobmodel"
	"github.com/pharma-intellect/pharmarag/internal/handlers"
	"github.com/pharma-intellect/pharmarag/internal/job"
	"github.com/pharma-intellect/pharmarag/internal/kb/chunker"
	"github.com/pharma-intellect/pharmarag/internal/kb/ingest"
	"github.com/pharma-intellect/pharmarag/internal/rag"
	"github.com/pharma-intellect/pharmarag/internal/rag/compose"
	"github.com/pharma-intellect/pharmarag/internal/rag/embedding/google"
	"github.com/pharma-intellect/pharmarag/internal/rag/llm"
	"github.com/pharma-intellect/pharmarag/internal/rag/llm/openai"
	"github.com/pharma-intellect/pharmarag/internal/rag/retriever"
	"github.com/pharma-intellect/pharmarag/internal/rag/vectorstore/qdrant"
	"github.com/pharma-intellect/pharmarag/internal/server"
	"github.com/pharma-intellect/pharmarag/internal/worker"
	"github.com/pharma-intellect/pharmarag/pkg/logging"
)

var (
	listenAddr        string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {

	_ = godotenv.Load()
	logging.Init()
	var logger = logging.NewLogger("main")

	//config
	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.Parse()
	settings := config.Load()

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	//init job service and stores, falling back to in-memory when redis
	//is unreachable
	serviceConfig := job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
	}

	jobDB, jobErr := redisstore.New(serviceContext, settings.RedisAddr, config.RedisJobStore)
	historyDB, historyErr := redisstore.New(serviceContext, settings.RedisAddr, config.RedisHistoryStore)
	if jobErr != nil || historyErr != nil {
		logger.Warn("redis is offline, using in-memory stores",
			"jobStoreError", jobErr, "historyStoreError", historyErr)
		if jobDB != nil {
			_ = jobDB.Close()
		}
		if historyDB != nil {
			_ = historyDB.Close()
		}
		serviceConfig.JobStore = store.InitInMemoryJobStore()
		serviceConfig.HistoryStore = store.InitInMemoryHistoryStore()
	} else {
		defer jobDB.Close()
		defer historyDB.Close()
		serviceConfig.JobStore = store.NewRedisJobStore(jobDB)
		serviceConfig.HistoryStore = store.NewRedisHistoryStore(historyDB)
	}

	logger.Info("starting job service")
	service := job.InitJobService(serviceConfig)

	//domain clients: the vector store and embedder are required for
	//both query and ingestion paths, the LLM is optional and the
	//composer falls back to templated answers without it
	vectorStore, err := qdrant.New(settings.QdrantHost, settings.QdrantPort)
	if err != nil {
		logger.Error("vector store unavailable, shutting down", "error", err)
		return
	}
	defer vectorStore.Close()

	embedder, err := google.New(serviceContext, settings.EmbeddingModel, settings.GoogleAPIKey)
	if err != nil {
		logger.Error("embedding service unavailable, shutting down", "error", err)
		return
	}

	var llmProvider llm.Provider
	if client, err := openai.New(settings.OpenAIKey, settings.LLMModel); err != nil {
		logger.Warn("LLM unavailable, answers degrade to templated output", "error", err)
	} else {
		llmProvider = client
	}

	chunk, err := chunker.New(settings.ChunkSize, settings.ChunkOverlap)
	if err != nil {
		logger.Error("invalid chunking configuration", "error", err)
		return
	}

	ragService := rag.NewService(
		retriever.New(embedder, vectorStore, settings),
		compose.New(llmProvider),
		ingest.New(chunk, embedder, vectorStore),
		settings,
	)
	collectorService := collector.NewService(settings)

	jobHandler := handlers.NewHandler(service)

	//init worker pool
	pool := worker.NewPool(service, ragService, collectorService)
	pool.Start(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	srv := server.New(listenAddr, jobHandler)
	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go srv.ShutDownHandler(shutdownParams)
	go srv.Run()

	<-stopExecution
	logger.Info("server stopped")
}
