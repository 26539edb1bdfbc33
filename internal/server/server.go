package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"

	"github.com/pharma-intellect/pharmarag/internal/adapter/utils"
	"github.com/pharma-intellect/pharmarag/internal/config"
	"github.com/pharma-intellect/pharmarag/internal/handlers"
	"github.com/pharma-intellect/pharmarag/internal/middleware"
	"github.com/pharma-intellect/pharmarag/pkg/logging"
)

type Server struct {
	httpServer *http.Server
	logger     *logging.Logger
}

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	WorkerStop       chan bool
	Group            *sync.WaitGroup
	CloseServices    context.CancelFunc
}

// New builds the router and binds every endpoint through the
// middleware chain. The /metrics scrape endpoint is mounted by the
// router itself and stays outside the chain.
func New(listenAddr string, h *handlers.Handler) *Server {
	r := utils.NewRouter()

	r.Router.Post("/query", middleware.Wrap(h.QueryHandler))
	r.Router.Post("/collect", middleware.Wrap(h.CollectHandler))
	r.Router.Post("/ingest", middleware.Wrap(h.IngestHandler))
	r.Router.Get("/status/{id}", middleware.Wrap(h.GetStatusHandler))
	r.Router.Get("/history/{id}", middleware.Wrap(h.GetHistoryHandler))
	r.Router.Get("/healthz", h.HealthzHandler)

	return &Server{
		httpServer: &http.Server{
			Addr:         listenAddr,
			Handler:      r.Router,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
		logger: logging.NewLogger("Server"),
	}
}

func (s *Server) Run() {
	s.logger.Info("server is listening", "address", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("server crashed", "error", err.Error(), "addr", s.httpServer.Addr)
	}
}

func (s *Server) ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	s.logger.Info("server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		s.httpServer.SetKeepAlivesEnabled(false)

		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("could not shutdown gracefully", "error", err)
		}

		//close workers
		close(shutdownParams.WorkerStop)
		shutdownParams.Group.Wait()
		shutdownParams.CloseServices()
		close(shutdownParams.StopExecution)
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("gracefully shut down")
	case <-ctx.Done():
		s.logger.Info("force shut down")
		os.Exit(1)
	}
}
